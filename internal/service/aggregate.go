package service

import (
	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

// quantities at or below this are treated as zero
const quantityEpsilon = 1e-9

type plannedItem struct {
	item    models.ShoppingListItem
	created bool
	touched bool
	deleted bool
}

type plannedItems []*plannedItem

func newPlan(items []models.ShoppingListItem) plannedItems {
	plan := make(plannedItems, len(items))
	for i, it := range items {
		plan[i] = &plannedItem{item: it}
	}
	return plan
}

// ingredientQuantity is the amount one serving of the recipe contributes
func ingredientQuantity(ing *models.RecipeIngredient) float64 {
	if ing.Quantity <= 0 {
		return 1
	}
	return ing.Quantity
}

// findMatch returns the live item produced by recipeID for ing. Items that
// point at the ingredient row win over items that only share its food, unit
// and note.
func findMatch(plan plannedItems, recipeID uuid.UUID, ing *models.RecipeIngredient) *plannedItem {
	for _, p := range plan {
		if p.deleted || !p.item.FromRecipe(recipeID) {
			continue
		}
		if p.item.RecipeIngredientID != nil && *p.item.RecipeIngredientID == ing.ID {
			return p
		}
	}

	sig := ing.Signature()
	for _, p := range plan {
		if p.deleted || !p.item.FromRecipe(recipeID) {
			continue
		}
		if p.item.Signature() == sig {
			return p
		}
	}
	return nil
}

func nextPosition(plan plannedItems) int {
	next := 0
	for _, p := range plan {
		if p.item.Position >= next {
			next = p.item.Position + 1
		}
	}
	return next
}

// planRecipeAddition merges recipe's ingredients, scaled by increment, into
// the items of list listID.
func planRecipeAddition(listID uuid.UUID, recipe *models.Recipe, items []models.ShoppingListItem, increment float64) repository.ItemChanges {
	plan := newPlan(items)
	recipeID := recipe.ID

	for i := range recipe.Ingredients {
		ing := &recipe.Ingredients[i]
		amount := ingredientQuantity(ing) * increment

		if match := findMatch(plan, recipeID, ing); match != nil {
			match.item.Quantity += amount
			match.touched = true
			continue
		}

		ingredientID := ing.ID
		item := models.ShoppingListItem{
			ID:                 uuid.New(),
			ShoppingListID:     listID,
			Position:           nextPosition(plan),
			Quantity:           amount,
			Note:               ing.Note,
			FoodID:             copyID(ing.FoodID),
			UnitID:             copyID(ing.UnitID),
			RecipeID:           &recipeID,
			RecipeIngredientID: &ingredientID,
		}
		if ing.Food != nil {
			item.LabelID = copyID(ing.Food.LabelID)
		}
		plan = append(plan, &plannedItem{item: item, created: true})
	}

	return plan.changes()
}

// planRecipeRemoval takes decrement servings of recipe back off the list.
// Items that reach zero are deleted.
func planRecipeRemoval(recipe *models.Recipe, items []models.ShoppingListItem, decrement float64) repository.ItemChanges {
	plan := newPlan(items)

	for i := range recipe.Ingredients {
		ing := &recipe.Ingredients[i]

		match := findMatch(plan, recipe.ID, ing)
		if match == nil {
			continue
		}
		match.item.Quantity -= ingredientQuantity(ing) * decrement
		match.touched = true
		if match.item.Quantity <= quantityEpsilon {
			match.deleted = true
		}
	}

	return plan.changes()
}

func (plan plannedItems) changes() repository.ItemChanges {
	var changes repository.ItemChanges
	for _, p := range plan {
		switch {
		case p.created:
			changes.Create = append(changes.Create, p.item)
		case p.deleted:
			changes.Delete = append(changes.Delete, p.item.ID)
		case p.touched:
			changes.Update = append(changes.Update, p.item)
		}
	}
	return changes
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	out := *id
	return &out
}
