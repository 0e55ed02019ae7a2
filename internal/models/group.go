package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is the tenant boundary; every list, label, food and recipe belongs
// to exactly one group.
type Group struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
