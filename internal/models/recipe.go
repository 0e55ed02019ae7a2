package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Food is a group-scoped ingredient food ("Flour", "Eggs")
type Food struct {
	ID      uuid.UUID  `json:"id" db:"id"`
	GroupID uuid.UUID  `json:"group_id" db:"group_id"`
	Name    string     `json:"name" db:"name"`
	LabelID *uuid.UUID `json:"label_id,omitempty" db:"label_id"`
}

// Unit is a group-scoped measuring unit ("cup", "g")
type Unit struct {
	ID      uuid.UUID `json:"id" db:"id"`
	GroupID uuid.UUID `json:"group_id" db:"group_id"`
	Name    string    `json:"name" db:"name"`
}

// Recipe holds just enough of a recipe to drive shopping list aggregation
type Recipe struct {
	ID          uuid.UUID          `json:"id" db:"id"`
	GroupID     uuid.UUID          `json:"group_id" db:"group_id"`
	Name        string             `json:"name" db:"name"`
	Slug        string             `json:"slug" db:"slug"`
	Ingredients []RecipeIngredient `json:"recipe_ingredient"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

// RecipeIngredient is one line of a recipe's ingredient list
type RecipeIngredient struct {
	ID       uuid.UUID  `json:"id" db:"id"`
	RecipeID uuid.UUID  `json:"recipe_id" db:"recipe_id"`
	Position int        `json:"position" db:"position"`
	FoodID   *uuid.UUID `json:"food_id,omitempty" db:"food_id"`
	UnitID   *uuid.UUID `json:"unit_id,omitempty" db:"unit_id"`
	Quantity float64    `json:"quantity" db:"quantity"`
	Note     string     `json:"note" db:"note"`
	Food     *Food      `json:"food,omitempty"`
}

// Signature identifies "the same ingredient" independent of which row it
// came from: food, unit and a normalised note.
func (i *RecipeIngredient) Signature() IngredientSignature {
	return NewIngredientSignature(i.FoodID, i.UnitID, i.Note)
}

// IngredientSignature is the comparable food+unit+note key
type IngredientSignature struct {
	Food uuid.UUID
	Unit uuid.UUID
	Note string
}

// NewIngredientSignature builds a signature; nil references map to uuid.Nil
func NewIngredientSignature(foodID, unitID *uuid.UUID, note string) IngredientSignature {
	sig := IngredientSignature{Note: strings.ToLower(strings.TrimSpace(note))}
	if foodID != nil {
		sig.Food = *foodID
	}
	if unitID != nil {
		sig.Unit = *unitID
	}
	return sig
}

// RecipeCreate is the payload accepted when creating a recipe
type RecipeCreate struct {
	Name        string                   `json:"name"`
	Ingredients []RecipeIngredientCreate `json:"recipe_ingredient"`
}

// RecipeIngredientCreate describes an ingredient by food and unit name
type RecipeIngredientCreate struct {
	Food     string  `json:"food"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
	Note     string  `json:"note"`
}
