package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a notification topic
type EventType string

const (
	EventShoppingListCreated EventType = "shopping_list_created"
	EventShoppingListUpdated EventType = "shopping_list_updated"
	EventShoppingListDeleted EventType = "shopping_list_deleted"
	EventLabelCreated        EventType = "label_created"
	EventLabelUpdated        EventType = "label_updated"
	EventLabelDeleted        EventType = "label_deleted"
	EventRecipeCreated       EventType = "recipe_created"
)

// EventOperation tells subscribers what kind of mutation happened
type EventOperation string

const (
	OperationCreate EventOperation = "create"
	OperationUpdate EventOperation = "update"
	OperationDelete EventOperation = "delete"
)

// Event is what travels on the bus
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"event_type"`
	GroupID   uuid.UUID `json:"group_id"`
	Message   string    `json:"message,omitempty"`
	Document  any       `json:"document_data"`
	Timestamp time.Time `json:"timestamp"`
}

// ShoppingListEventData describes a change to a list itself
type ShoppingListEventData struct {
	Operation      EventOperation `json:"operation"`
	ShoppingListID uuid.UUID      `json:"shopping_list_id"`
}

// ShoppingListItemBulkEventData describes a batch of item changes within one list
type ShoppingListItemBulkEventData struct {
	Operation           EventOperation `json:"operation"`
	ShoppingListID      uuid.UUID      `json:"shopping_list_id"`
	ShoppingListItemIDs []uuid.UUID    `json:"shopping_list_item_ids"`
}

// LabelEventData describes a change to a label
type LabelEventData struct {
	Operation EventOperation `json:"operation"`
	LabelID   uuid.UUID      `json:"label_id"`
}

// RecipeEventData describes a change to a recipe
type RecipeEventData struct {
	Operation EventOperation `json:"operation"`
	RecipeID  uuid.UUID      `json:"recipe_id"`
	Slug      string         `json:"slug"`
}
