// Package memory keeps every entity in maps keyed by id, with relations
// held as foreign-key fields plus index maps. It backs development runs
// without a database and serves as the repository double in tests.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
)

// Store is a process-local entity store. All repositories handed out by the
// same Store share one lock, so ApplyChanges is atomic with respect to reads.
type Store struct {
	mu sync.RWMutex

	groups  map[uuid.UUID]*models.Group
	users   map[uuid.UUID]*models.User
	labels  map[uuid.UUID]*models.MultiPurposeLabel
	lists   map[uuid.UUID]*models.ShoppingList
	items   map[uuid.UUID]*models.ShoppingListItem
	recipes map[uuid.UUID]*models.Recipe
	foods   map[uuid.UUID]*models.Food
	units   map[uuid.UUID]*models.Unit

	// list id -> item ids, in insertion order
	itemsByList map[uuid.UUID][]uuid.UUID

	now func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		groups:      make(map[uuid.UUID]*models.Group),
		users:       make(map[uuid.UUID]*models.User),
		labels:      make(map[uuid.UUID]*models.MultiPurposeLabel),
		lists:       make(map[uuid.UUID]*models.ShoppingList),
		items:       make(map[uuid.UUID]*models.ShoppingListItem),
		recipes:     make(map[uuid.UUID]*models.Recipe),
		foods:       make(map[uuid.UUID]*models.Food),
		units:       make(map[uuid.UUID]*models.Unit),
		itemsByList: make(map[uuid.UUID][]uuid.UUID),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Groups returns the group repository view
func (s *Store) Groups() *GroupRepository { return &GroupRepository{s: s} }

// Users returns the user repository view
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Labels returns the label repository view
func (s *Store) Labels() *LabelRepository { return &LabelRepository{s: s} }

// ShoppingLists returns the shopping list repository view
func (s *Store) ShoppingLists() *ShoppingListRepository { return &ShoppingListRepository{s: s} }

// ShoppingListItems returns the shopping list item repository view
func (s *Store) ShoppingListItems() *ShoppingListItemRepository {
	return &ShoppingListItemRepository{s: s}
}

// Recipes returns the recipe repository view
func (s *Store) Recipes() *RecipeRepository { return &RecipeRepository{s: s} }

// Foods returns the food and unit repository view
func (s *Store) Foods() *FoodRepository { return &FoodRepository{s: s} }

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
