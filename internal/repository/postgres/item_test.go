package postgres

import (
	"context"
	"database/sql/driver"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

var itemColumnNames = []string{
	"id", "shopping_list_id", "position", "checked", "quantity", "note",
	"food_id", "unit_id", "label_id", "recipe_id", "recipe_ingredient_id", "created_at", "updated_at",
}

func newItemRepo(t *testing.T) (repository.ShoppingListItemRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewShoppingListItemRepository(db), mock
}

func itemRows(now time.Time, items ...models.ShoppingListItem) *sqlmock.Rows {
	rows := sqlmock.NewRows(itemColumnNames)
	for _, it := range items {
		var food any
		if it.FoodID != nil {
			food = it.FoodID.String()
		}
		rows.AddRow(it.ID.String(), it.ShoppingListID.String(), int64(it.Position), it.Checked, it.Quantity, it.Note,
			food, nil, nil, nil, nil, now, now)
	}
	return rows
}

// anyArgs returns n placeholders, replacing position i with want
func anyArgs(n, i int, want any) []driver.Value {
	args := make([]driver.Value, n)
	for j := range args {
		args[j] = sqlmock.AnyArg()
	}
	args[i] = want
	return args
}

func TestApplyChangesBatchesPerStatement(t *testing.T) {
	repo, mock := newItemRepo(t)
	now := time.Now().UTC()
	listID, foodID := uuid.New(), uuid.New()

	create := []models.ShoppingListItem{
		{ID: uuid.New(), ShoppingListID: listID, Quantity: 1, Note: "salt"},
		{ID: uuid.New(), ShoppingListID: listID, Quantity: 2, FoodID: &foodID},
	}
	update := []models.ShoppingListItem{{ID: uuid.New(), ShoppingListID: listID, Quantity: 3, Checked: true}}
	del := []models.ShoppingListItem{
		{ID: uuid.New(), ShoppingListID: listID},
		{ID: uuid.New(), ShoppingListID: listID},
	}

	// food_id is the 7th array; the item without a food is a NULL element
	foods := fmt.Sprintf(`{NULL,"%s"}`, foodID)

	mock.ExpectBegin()
	mock.ExpectQuery(`^\s*INSERT INTO shopping_list_items`).
		WithArgs(anyArgs(12, 6, foods)...).
		WillReturnRows(itemRows(now, create[1], create[0]))
	mock.ExpectQuery(`^\s*UPDATE shopping_list_items AS i`).
		WithArgs(anyArgs(12, 6, "{NULL}")...).
		WillReturnRows(itemRows(now, update...))
	mock.ExpectQuery(`^\s*DELETE FROM shopping_list_items`).
		WithArgs(fmt.Sprintf(`{"%s","%s"}`, del[0].ID, del[1].ID)).
		WillReturnRows(itemRows(now, del...))
	mock.ExpectCommit()

	collection, err := repo.ApplyChanges(context.Background(), repository.ItemChanges{
		Create: create,
		Update: update,
		Delete: []uuid.UUID{del[0].ID, del[1].ID, del[0].ID},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, collection.CreatedItems, 2)
	assert.Equal(t, create[0].ID, collection.CreatedItems[0].ID, "results follow the request order")
	assert.Nil(t, collection.CreatedItems[0].FoodID)
	require.NotNil(t, collection.CreatedItems[1].FoodID)
	assert.Equal(t, foodID, *collection.CreatedItems[1].FoodID)

	require.Len(t, collection.UpdatedItems, 1)
	assert.True(t, collection.UpdatedItems[0].Checked)
	assert.Len(t, collection.DeletedItems, 2)
}

func TestApplyChangesMissingRowsRollBack(t *testing.T) {
	now := time.Now().UTC()
	listID := uuid.New()
	known := models.ShoppingListItem{ID: uuid.New(), ShoppingListID: listID, Quantity: 1}
	missing := models.ShoppingListItem{ID: uuid.New(), ShoppingListID: listID, Quantity: 1}

	t.Run("Update", func(t *testing.T) {
		repo, mock := newItemRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`^\s*UPDATE shopping_list_items`).WillReturnRows(itemRows(now, known))
		mock.ExpectRollback()

		_, err := repo.ApplyChanges(context.Background(), repository.ItemChanges{
			Update: []models.ShoppingListItem{known, missing},
		})
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteAfterCreate", func(t *testing.T) {
		repo, mock := newItemRepo(t)
		created := models.ShoppingListItem{ID: uuid.New(), ShoppingListID: listID, Quantity: 1}
		mock.ExpectBegin()
		mock.ExpectQuery(`^\s*INSERT INTO shopping_list_items`).WillReturnRows(itemRows(now, created))
		mock.ExpectQuery(`^\s*DELETE FROM shopping_list_items`).WillReturnRows(itemRows(now, known))
		mock.ExpectRollback()

		_, err := repo.ApplyChanges(context.Background(), repository.ItemChanges{
			Create: []models.ShoppingListItem{created},
			Delete: []uuid.UUID{known.ID, missing.ID},
		})
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "the insert is rolled back with the failed delete")
	})

	t.Run("Empty", func(t *testing.T) {
		repo, mock := newItemRepo(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		collection, err := repo.ApplyChanges(context.Background(), repository.ItemChanges{})
		require.NoError(t, err)
		assert.True(t, collection.Empty())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
