package models

import (
	"time"

	"github.com/google/uuid"
)

// ShoppingList represents a group's shopping list
type ShoppingList struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	GroupID   uuid.UUID          `json:"group_id" db:"group_id"`
	Name      string             `json:"name" db:"name"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
	Items     []ShoppingListItem `json:"list_items"`
}

// ShoppingListItem represents an item in a shopping list. An item always
// has a parent list; recipe references are optional back-links to the
// recipe ingredient that produced it.
type ShoppingListItem struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	ShoppingListID     uuid.UUID  `json:"shopping_list_id" db:"shopping_list_id"`
	Position           int        `json:"position" db:"position"`
	Checked            bool       `json:"checked" db:"checked"`
	Quantity           float64    `json:"quantity" db:"quantity"`
	Note               string     `json:"note" db:"note"`
	FoodID             *uuid.UUID `json:"food_id,omitempty" db:"food_id"`
	UnitID             *uuid.UUID `json:"unit_id,omitempty" db:"unit_id"`
	LabelID            *uuid.UUID `json:"label_id,omitempty" db:"label_id"`
	RecipeID           *uuid.UUID `json:"recipe_id,omitempty" db:"recipe_id"`
	RecipeIngredientID *uuid.UUID `json:"recipe_ingredient_id,omitempty" db:"recipe_ingredient_id"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// Signature returns the food+unit+note key of the item
func (i *ShoppingListItem) Signature() IngredientSignature {
	return NewIngredientSignature(i.FoodID, i.UnitID, i.Note)
}

// FromRecipe returns true if the item was produced from the given recipe
func (i *ShoppingListItem) FromRecipe(recipeID uuid.UUID) bool {
	return i.RecipeID != nil && *i.RecipeID == recipeID
}

// ShoppingListCreate is the payload accepted when creating a list
type ShoppingListCreate struct {
	Name string `json:"name"`
}

// ShoppingListUpdate is the payload accepted when renaming a list
type ShoppingListUpdate struct {
	Name string `json:"name"`
}

// ShoppingListItemCreate is one entry of a bulk create request
type ShoppingListItemCreate struct {
	ShoppingListID     uuid.UUID  `json:"shopping_list_id"`
	Position           int        `json:"position"`
	Checked            bool       `json:"checked"`
	Quantity           float64    `json:"quantity"`
	Note               string     `json:"note"`
	FoodID             *uuid.UUID `json:"food_id"`
	UnitID             *uuid.UUID `json:"unit_id"`
	LabelID            *uuid.UUID `json:"label_id"`
	RecipeID           *uuid.UUID `json:"recipe_id"`
	RecipeIngredientID *uuid.UUID `json:"recipe_ingredient_id"`
}

// ShoppingListItemUpdate is one entry of a bulk update request. The whole
// mutable state of the item is replaced.
type ShoppingListItemUpdate struct {
	ID             uuid.UUID  `json:"id"`
	ShoppingListID uuid.UUID  `json:"shopping_list_id"`
	Position       int        `json:"position"`
	Checked        bool       `json:"checked"`
	Quantity       float64    `json:"quantity"`
	Note           string     `json:"note"`
	FoodID         *uuid.UUID `json:"food_id"`
	UnitID         *uuid.UUID `json:"unit_id"`
	LabelID        *uuid.UUID `json:"label_id"`
}

// ShoppingListItemsCollection partitions the items touched by one mutation
// by kind so callers can emit differentiated events.
type ShoppingListItemsCollection struct {
	CreatedItems []ShoppingListItem `json:"created_items"`
	UpdatedItems []ShoppingListItem `json:"updated_items"`
	DeletedItems []ShoppingListItem `json:"deleted_items"`
}

// Empty returns true if the mutation touched nothing
func (c *ShoppingListItemsCollection) Empty() bool {
	return len(c.CreatedItems) == 0 && len(c.UpdatedItems) == 0 && len(c.DeletedItems) == 0
}

// ShoppingListSummary is the list representation used in paginated listings
type ShoppingListSummary struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"group_id"`
	Name      string    `json:"name"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
