package models

import (
	"time"

	"github.com/google/uuid"
)

// MultiPurposeLabel tags foods and shopping list items. Items and foods only
// reference a label; removing the label clears those references.
type MultiPurposeLabel struct {
	ID        uuid.UUID `json:"id" db:"id"`
	GroupID   uuid.UUID `json:"group_id" db:"group_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// LabelCreate is the payload accepted when creating a label
type LabelCreate struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// LabelUpdate is the payload accepted when updating a label
type LabelUpdate struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}
