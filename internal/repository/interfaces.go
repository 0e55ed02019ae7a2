package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
)

// ErrNotFound is returned when a lookup by id finds nothing in the caller's scope
var ErrNotFound = errors.New("not found")

// Crud is the group-scoped contract shared by simple collections. C is the
// create shape, S the stored shape and U the update shape.
type Crud[C any, S any, U any] interface {
	Create(ctx context.Context, groupID uuid.UUID, data C) (*S, error)
	GetByID(ctx context.Context, groupID, id uuid.UUID) (*S, error)
	GetAll(ctx context.Context, groupID uuid.UUID, page Pagination) ([]*S, error)
	Update(ctx context.Context, groupID, id uuid.UUID, data U) (*S, error)
	Delete(ctx context.Context, groupID, id uuid.UUID) (*S, error)
}

// GroupRepository defines the interface for group data operations
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) (*models.Group, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	GetByName(ctx context.Context, name string) (*models.Group, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

// LabelRepository defines the interface for multi purpose label operations.
// Delete clears the label reference on items and foods.
type LabelRepository interface {
	Crud[models.LabelCreate, models.MultiPurposeLabel, models.LabelUpdate]
}

// ShoppingListRepository defines the interface for shopping list operations.
// GetByID loads the items; GetAll does not.
type ShoppingListRepository interface {
	Crud[models.ShoppingListCreate, models.ShoppingList, models.ShoppingListUpdate]
	Summaries(ctx context.Context, groupID uuid.UUID, page Pagination) ([]*models.ShoppingListSummary, error)
	ExistingIDs(ctx context.Context, groupID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}

// ItemChanges is a set of item writes applied as one unit
type ItemChanges struct {
	Create []models.ShoppingListItem
	Update []models.ShoppingListItem
	Delete []uuid.UUID
}

// ShoppingListItemRepository defines the interface for shopping list item operations
type ShoppingListItemRepository interface {
	GetByID(ctx context.Context, groupID, id uuid.UUID) (*models.ShoppingListItem, error)
	GetByIDs(ctx context.Context, groupID uuid.UUID, ids []uuid.UUID) ([]*models.ShoppingListItem, error)
	GetByList(ctx context.Context, listID uuid.UUID) ([]*models.ShoppingListItem, error)
	// ApplyChanges writes all changes atomically. An update or delete that
	// names a missing item fails the whole call with ErrNotFound.
	ApplyChanges(ctx context.Context, changes ItemChanges) (*models.ShoppingListItemsCollection, error)
}

// RecipeRepository defines the interface for recipe operations
type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	GetByID(ctx context.Context, groupID, id uuid.UUID) (*models.Recipe, error)
}

// FoodRepository defines the interface for food and unit lookups
type FoodRepository interface {
	EnsureFood(ctx context.Context, groupID uuid.UUID, name string) (*models.Food, error)
	EnsureUnit(ctx context.Context, groupID uuid.UUID, name string) (*models.Unit, error)
	GetFood(ctx context.Context, groupID, id uuid.UUID) (*models.Food, error)
	GetUnit(ctx context.Context, groupID, id uuid.UUID) (*models.Unit, error)
}

// Pagination represents paging parameters for listings
type Pagination struct {
	Page    int
	PerPage int
}

// DefaultPerPage is used when the caller does not ask for a page size
const DefaultPerPage = 50

// Limit returns the page size, falling back to DefaultPerPage
func (p Pagination) Limit() int {
	if p.PerPage <= 0 {
		return DefaultPerPage
	}
	return p.PerPage
}

// Offset returns the number of rows to skip; pages are 1-based
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}
