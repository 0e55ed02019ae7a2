package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

// ListSummaries returns a page of the group's lists with item counts
func (s *Service) ListSummaries(ctx context.Context, groupID uuid.UUID, page repository.Pagination) ([]*models.ShoppingListSummary, error) {
	return s.repos.Lists.Summaries(ctx, groupID, page)
}

// AddRecipeIngredients adds increment servings of a recipe's ingredients to
// a list. Ingredients already on the list from the same recipe have their
// quantity raised; the rest become new items linked back to the recipe.
func (s *Service) AddRecipeIngredients(ctx context.Context, groupID, listID, recipeID uuid.UUID, increment float64) (*models.ShoppingList, *models.ShoppingListItemsCollection, error) {
	if increment <= 0 {
		return nil, nil, invalid("recipe_increment_quantity must be positive")
	}

	list, recipe, err := s.listAndRecipe(ctx, groupID, listID, recipeID)
	if err != nil {
		return nil, nil, err
	}

	changes := planRecipeAddition(list.ID, recipe, list.Items, increment)
	return s.applyToList(ctx, groupID, list.ID, changes)
}

// RemoveRecipeIngredients takes decrement servings of a recipe's
// ingredients off a list, deleting items whose quantity runs out.
func (s *Service) RemoveRecipeIngredients(ctx context.Context, groupID, listID, recipeID uuid.UUID, decrement float64) (*models.ShoppingList, *models.ShoppingListItemsCollection, error) {
	if decrement <= 0 {
		return nil, nil, invalid("recipe_decrement_quantity must be positive")
	}

	list, recipe, err := s.listAndRecipe(ctx, groupID, listID, recipeID)
	if err != nil {
		return nil, nil, err
	}

	changes := planRecipeRemoval(recipe, list.Items, decrement)
	return s.applyToList(ctx, groupID, list.ID, changes)
}

func (s *Service) listAndRecipe(ctx context.Context, groupID, listID, recipeID uuid.UUID) (*models.ShoppingList, *models.Recipe, error) {
	list, err := s.repos.Lists.GetByID(ctx, groupID, listID)
	if err != nil {
		return nil, nil, fmt.Errorf("shopping list %s: %w", listID, err)
	}
	recipe, err := s.repos.Recipes.GetByID(ctx, groupID, recipeID)
	if err != nil {
		return nil, nil, fmt.Errorf("recipe %s: %w", recipeID, err)
	}
	return list, recipe, nil
}

func (s *Service) applyToList(ctx context.Context, groupID, listID uuid.UUID, changes repository.ItemChanges) (*models.ShoppingList, *models.ShoppingListItemsCollection, error) {
	collection, err := s.repos.Items.ApplyChanges(ctx, changes)
	if err != nil {
		return nil, nil, err
	}

	list, err := s.repos.Lists.GetByID(ctx, groupID, listID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithField("shopping_list_id", listID).Debugf("Applied recipe: %d created, %d updated, %d deleted",
		len(collection.CreatedItems), len(collection.UpdatedItems), len(collection.DeletedItems))
	return list, collection, nil
}

// GetItem returns one item of the group
func (s *Service) GetItem(ctx context.Context, groupID, id uuid.UUID) (*models.ShoppingListItem, error) {
	return s.repos.Items.GetByID(ctx, groupID, id)
}

// BulkCreateItems creates all items in one write. Any invalid entry rejects
// the whole batch.
func (s *Service) BulkCreateItems(ctx context.Context, groupID uuid.UUID, data []models.ShoppingListItemCreate) (*models.ShoppingListItemsCollection, error) {
	if len(data) == 0 {
		return emptyCollection(), nil
	}

	listIDs := make([]uuid.UUID, len(data))
	for i, d := range data {
		listIDs[i] = d.ShoppingListID
	}

	v, err := s.newRefValidator(ctx, groupID, listIDs)
	if err != nil {
		return nil, err
	}

	items := make([]models.ShoppingListItem, len(data))
	for i, d := range data {
		v.list(i, d.ShoppingListID)
		v.quantity(i, d.Quantity)
		food := v.food(i, d.FoodID)
		v.unit(i, d.UnitID)
		v.label(i, d.LabelID)
		v.recipe(i, d.RecipeID, d.RecipeIngredientID)

		item := models.ShoppingListItem{
			ID:                 uuid.New(),
			ShoppingListID:     d.ShoppingListID,
			Position:           d.Position,
			Checked:            d.Checked,
			Quantity:           d.Quantity,
			Note:               d.Note,
			FoodID:             copyID(d.FoodID),
			UnitID:             copyID(d.UnitID),
			LabelID:            copyID(d.LabelID),
			RecipeID:           copyID(d.RecipeID),
			RecipeIngredientID: copyID(d.RecipeIngredientID),
		}
		if item.Quantity == 0 {
			item.Quantity = 1
		}
		if item.LabelID == nil && food != nil {
			item.LabelID = copyID(food.LabelID)
		}
		items[i] = item
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	return s.repos.Items.ApplyChanges(ctx, repository.ItemChanges{Create: items})
}

// BulkUpdateItems replaces the mutable state of every listed item in one
// write. Unknown item ids fail with repository.ErrNotFound.
func (s *Service) BulkUpdateItems(ctx context.Context, groupID uuid.UUID, data []models.ShoppingListItemUpdate) (*models.ShoppingListItemsCollection, error) {
	if len(data) == 0 {
		return emptyCollection(), nil
	}

	ids := make([]uuid.UUID, len(data))
	listIDs := make([]uuid.UUID, len(data))
	for i, d := range data {
		ids[i] = d.ID
		listIDs[i] = d.ShoppingListID
	}

	existing, err := s.itemsByID(ctx, groupID, ids)
	if err != nil {
		return nil, err
	}

	v, err := s.newRefValidator(ctx, groupID, listIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(data))
	items := make([]models.ShoppingListItem, len(data))
	for i, d := range data {
		if seen[d.ID] {
			v.addf("item %d: item %s listed more than once", i, d.ID)
		}
		seen[d.ID] = true

		v.list(i, d.ShoppingListID)
		v.quantity(i, d.Quantity)
		v.food(i, d.FoodID)
		v.unit(i, d.UnitID)
		v.label(i, d.LabelID)

		current := existing[d.ID]
		items[i] = models.ShoppingListItem{
			ID:                 d.ID,
			ShoppingListID:     d.ShoppingListID,
			Position:           d.Position,
			Checked:            d.Checked,
			Quantity:           d.Quantity,
			Note:               d.Note,
			FoodID:             copyID(d.FoodID),
			UnitID:             copyID(d.UnitID),
			LabelID:            copyID(d.LabelID),
			RecipeID:           copyID(current.RecipeID),
			RecipeIngredientID: copyID(current.RecipeIngredientID),
			CreatedAt:          current.CreatedAt,
		}
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	return s.repos.Items.ApplyChanges(ctx, repository.ItemChanges{Update: items})
}

// BulkDeleteItems deletes the items in one write. If any id is unknown
// nothing is deleted.
func (s *Service) BulkDeleteItems(ctx context.Context, groupID uuid.UUID, ids []uuid.UUID) (*models.ShoppingListItemsCollection, error) {
	if len(ids) == 0 {
		return emptyCollection(), nil
	}

	if _, err := s.itemsByID(ctx, groupID, ids); err != nil {
		return nil, err
	}

	return s.repos.Items.ApplyChanges(ctx, repository.ItemChanges{Delete: ids})
}

// itemsByID loads the group's items and fails with ErrNotFound naming the
// first id that does not exist.
func (s *Service) itemsByID(ctx context.Context, groupID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.ShoppingListItem, error) {
	found, err := s.repos.Items.GetByIDs(ctx, groupID, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.ShoppingListItem, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("shopping list item %s: %w", id, repository.ErrNotFound)
		}
	}
	return byID, nil
}

func emptyCollection() *models.ShoppingListItemsCollection {
	return &models.ShoppingListItemsCollection{
		CreatedItems: []models.ShoppingListItem{},
		UpdatedItems: []models.ShoppingListItem{},
		DeletedItems: []models.ShoppingListItem{},
	}
}

// refValidator checks the references of batch entries against the caller's
// group, caching lookups across entries.
type refValidator struct {
	problems
	ctx     context.Context
	svc     *Service
	groupID uuid.UUID
	lists   map[uuid.UUID]bool
	foods   map[uuid.UUID]*models.Food
	units   map[uuid.UUID]bool
	labels  map[uuid.UUID]bool
	recipes map[uuid.UUID]*models.Recipe
	lookErr error
}

func (s *Service) newRefValidator(ctx context.Context, groupID uuid.UUID, listIDs []uuid.UUID) (*refValidator, error) {
	lists, err := s.repos.Lists.ExistingIDs(ctx, groupID, listIDs)
	if err != nil {
		return nil, err
	}
	return &refValidator{
		ctx:     ctx,
		svc:     s,
		groupID: groupID,
		lists:   lists,
		foods:   make(map[uuid.UUID]*models.Food),
		units:   make(map[uuid.UUID]bool),
		labels:  make(map[uuid.UUID]bool),
		recipes: make(map[uuid.UUID]*models.Recipe),
	}, nil
}

func (v *refValidator) list(i int, id uuid.UUID) {
	if !v.lists[id] {
		v.addf("item %d: shopping list %s does not exist", i, id)
	}
}

func (v *refValidator) quantity(i int, q float64) {
	if q < 0 {
		v.addf("item %d: quantity must not be negative", i)
	}
}

func (v *refValidator) food(i int, id *uuid.UUID) *models.Food {
	if id == nil {
		return nil
	}
	food, cached := v.foods[*id]
	if !cached {
		var err error
		food, err = v.svc.repos.Foods.GetFood(v.ctx, v.groupID, *id)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			v.lookErr = err
		}
		v.foods[*id] = food
	}
	if food == nil {
		v.addf("item %d: food %s does not exist", i, *id)
	}
	return food
}

func (v *refValidator) label(i int, id *uuid.UUID) {
	if id == nil {
		return
	}
	ok, cached := v.labels[*id]
	if !cached {
		_, err := v.svc.repos.Labels.GetByID(v.ctx, v.groupID, *id)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			v.lookErr = err
		}
		ok = err == nil
		v.labels[*id] = ok
	}
	if !ok {
		v.addf("item %d: label %s does not exist", i, *id)
	}
}

func (v *refValidator) unit(i int, id *uuid.UUID) {
	if id == nil {
		return
	}
	ok, cached := v.units[*id]
	if !cached {
		_, err := v.svc.repos.Foods.GetUnit(v.ctx, v.groupID, *id)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			v.lookErr = err
		}
		ok = err == nil
		v.units[*id] = ok
	}
	if !ok {
		v.addf("item %d: unit %s does not exist", i, *id)
	}
}

// recipe checks the recipe reference and that the ingredient, when given,
// is one of that recipe's ingredients.
func (v *refValidator) recipe(i int, id, ingredientID *uuid.UUID) {
	if id == nil {
		if ingredientID != nil {
			v.addf("item %d: recipe_ingredient_id requires recipe_id", i)
		}
		return
	}
	recipe, cached := v.recipes[*id]
	if !cached {
		var err error
		recipe, err = v.svc.repos.Recipes.GetByID(v.ctx, v.groupID, *id)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			v.lookErr = err
		}
		v.recipes[*id] = recipe
	}
	if recipe == nil {
		v.addf("item %d: recipe %s does not exist", i, *id)
		return
	}
	if ingredientID == nil {
		return
	}
	for _, ing := range recipe.Ingredients {
		if ing.ID == *ingredientID {
			return
		}
	}
	v.addf("item %d: ingredient %s is not part of recipe %s", i, *ingredientID, *id)
}

// err reports lookup failures ahead of validation problems
func (v *refValidator) err() error {
	if v.lookErr != nil {
		return v.lookErr
	}
	return v.problems.err()
}
