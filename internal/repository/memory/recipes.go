package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

// RecipeRepository is the in-memory repository.RecipeRepository
type RecipeRepository struct{ s *Store }

var _ repository.RecipeRepository = (*RecipeRepository)(nil)

func (r *RecipeRepository) Create(_ context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec := *recipe
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = r.s.now()
	rec.UpdatedAt = rec.CreatedAt
	rec.Ingredients = make([]models.RecipeIngredient, len(recipe.Ingredients))
	for i, ing := range recipe.Ingredients {
		if ing.ID == uuid.Nil {
			ing.ID = uuid.New()
		}
		ing.RecipeID = rec.ID
		ing.Position = i
		ing.Food = nil
		rec.Ingredients[i] = ing
	}
	r.s.recipes[rec.ID] = &rec
	return r.s.loadRecipe(&rec), nil
}

func (r *RecipeRepository) GetByID(_ context.Context, groupID, id uuid.UUID) (*models.Recipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.recipes[id]
	if !ok || rec.GroupID != groupID {
		return nil, repository.ErrNotFound
	}
	return r.s.loadRecipe(rec), nil
}

// loadRecipe copies a recipe and resolves ingredient foods; caller holds the lock
func (s *Store) loadRecipe(rec *models.Recipe) *models.Recipe {
	out := *rec
	out.Ingredients = make([]models.RecipeIngredient, len(rec.Ingredients))
	for i, ing := range rec.Ingredients {
		if ing.FoodID != nil {
			if food, ok := s.foods[*ing.FoodID]; ok {
				f := *food
				f.LabelID = cloneUUID(food.LabelID)
				ing.Food = &f
			}
		}
		out.Ingredients[i] = ing
	}
	return &out
}

// FoodRepository is the in-memory repository.FoodRepository
type FoodRepository struct{ s *Store }

var _ repository.FoodRepository = (*FoodRepository)(nil)

func (r *FoodRepository) EnsureFood(_ context.Context, groupID uuid.UUID, name string) (*models.Food, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, f := range r.s.foods {
		if f.GroupID == groupID && strings.EqualFold(f.Name, name) {
			out := *f
			return &out, nil
		}
	}
	f := &models.Food{ID: uuid.New(), GroupID: groupID, Name: name}
	r.s.foods[f.ID] = f
	out := *f
	return &out, nil
}

func (r *FoodRepository) EnsureUnit(_ context.Context, groupID uuid.UUID, name string) (*models.Unit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.units {
		if u.GroupID == groupID && strings.EqualFold(u.Name, name) {
			out := *u
			return &out, nil
		}
	}
	u := &models.Unit{ID: uuid.New(), GroupID: groupID, Name: name}
	r.s.units[u.ID] = u
	out := *u
	return &out, nil
}

func (r *FoodRepository) GetFood(_ context.Context, groupID, id uuid.UUID) (*models.Food, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.foods[id]
	if !ok || f.GroupID != groupID {
		return nil, repository.ErrNotFound
	}
	out := *f
	return &out, nil
}

func (r *FoodRepository) GetUnit(_ context.Context, groupID, id uuid.UUID) (*models.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.units[id]
	if !ok || u.GroupID != groupID {
		return nil, repository.ErrNotFound
	}
	out := *u
	return &out, nil
}

// SetFoodLabel attaches a label to a food. There is no HTTP surface for
// food management, so this exists for seeding and tests.
func (r *FoodRepository) SetFoodLabel(_ context.Context, foodID uuid.UUID, labelID *uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.foods[foodID]
	if !ok {
		return repository.ErrNotFound
	}
	f.LabelID = cloneUUID(labelID)
	return nil
}
