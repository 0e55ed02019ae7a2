package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
)

// CreateRecipe stores a recipe, creating the foods and units it names
func (s *Service) CreateRecipe(ctx context.Context, groupID uuid.UUID, data models.RecipeCreate) (*models.Recipe, error) {
	var p problems
	if strings.TrimSpace(data.Name) == "" {
		p.addf("name must not be empty")
	}
	for i, ing := range data.Ingredients {
		if ing.Quantity < 0 {
			p.addf("ingredient %d: quantity must not be negative", i)
		}
		if strings.TrimSpace(ing.Food) == "" && strings.TrimSpace(ing.Note) == "" {
			p.addf("ingredient %d: needs a food or a note", i)
		}
	}
	if err := p.err(); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		GroupID:     groupID,
		Name:        strings.TrimSpace(data.Name),
		Slug:        Slugify(data.Name),
		Ingredients: make([]models.RecipeIngredient, len(data.Ingredients)),
	}

	for i, ing := range data.Ingredients {
		ingredient := models.RecipeIngredient{
			Position: i,
			Quantity: ing.Quantity,
			Note:     strings.TrimSpace(ing.Note),
		}

		if name := strings.TrimSpace(ing.Food); name != "" {
			food, err := s.repos.Foods.EnsureFood(ctx, groupID, name)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve food %q: %w", name, err)
			}
			ingredient.FoodID = &food.ID
		}
		if name := strings.TrimSpace(ing.Unit); name != "" {
			unit, err := s.repos.Foods.EnsureUnit(ctx, groupID, name)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve unit %q: %w", name, err)
			}
			ingredient.UnitID = &unit.ID
		}

		recipe.Ingredients[i] = ingredient
	}

	created, err := s.repos.Recipes.Create(ctx, recipe)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("recipe_id", created.ID).Infof("Created recipe %q with %d ingredients", created.Name, len(created.Ingredients))
	return created, nil
}

// GetRecipe returns a recipe of the group with its ingredients
func (s *Service) GetRecipe(ctx context.Context, groupID, id uuid.UUID) (*models.Recipe, error) {
	return s.repos.Recipes.GetByID(ctx, groupID, id)
}

// Slugify lowercases name and joins its words with dashes
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// GetFood returns one food of the group
func (s *Service) GetFood(ctx context.Context, groupID, id uuid.UUID) (*models.Food, error) {
	return s.repos.Foods.GetFood(ctx, groupID, id)
}
