package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

type shoppingListItemRepository struct {
	db *sql.DB
}

// NewShoppingListItemRepository creates a new shopping list item repository
func NewShoppingListItemRepository(db *sql.DB) repository.ShoppingListItemRepository {
	return &shoppingListItemRepository{db: db}
}

const itemColumns = `id, shopping_list_id, position, checked, quantity, note,
	food_id, unit_id, label_id, recipe_id, recipe_ingredient_id, created_at, updated_at`

const prefixedItemColumns = `i.id, i.shopping_list_id, i.position, i.checked, i.quantity, i.note,
	i.food_id, i.unit_id, i.label_id, i.recipe_id, i.recipe_ingredient_id, i.created_at, i.updated_at`

func scanItem(row scanner) (*models.ShoppingListItem, error) {
	item := &models.ShoppingListItem{}
	var foodID, unitID, labelID, recipeID, ingredientID uuid.NullUUID
	err := row.Scan(
		&item.ID,
		&item.ShoppingListID,
		&item.Position,
		&item.Checked,
		&item.Quantity,
		&item.Note,
		&foodID,
		&unitID,
		&labelID,
		&recipeID,
		&ingredientID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.FoodID = fromNull(foodID)
	item.UnitID = fromNull(unitID)
	item.LabelID = fromNull(labelID)
	item.RecipeID = fromNull(recipeID)
	item.RecipeIngredientID = fromNull(ingredientID)
	return item, nil
}

func scanItems(rows *sql.Rows) ([]*models.ShoppingListItem, error) {
	defer rows.Close()

	items := []*models.ShoppingListItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shopping list item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *shoppingListItemRepository) GetByID(ctx context.Context, groupID, id uuid.UUID) (*models.ShoppingListItem, error) {
	query := `
		SELECT ` + prefixedItemColumns + `
		FROM shopping_list_items i
		INNER JOIN shopping_lists l ON l.id = i.shopping_list_id
		WHERE i.id = $1 AND l.group_id = $2`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id, groupID))
	if err != nil {
		return nil, fmt.Errorf("failed to get shopping list item: %w", notFound(err))
	}
	return item, nil
}

func (r *shoppingListItemRepository) GetByIDs(ctx context.Context, groupID uuid.UUID, ids []uuid.UUID) ([]*models.ShoppingListItem, error) {
	query := `
		SELECT ` + prefixedItemColumns + `
		FROM shopping_list_items i
		INNER JOIN shopping_lists l ON l.id = i.shopping_list_id
		WHERE i.id = ANY($1::uuid[]) AND l.group_id = $2`

	rows, err := r.db.QueryContext(ctx, query, uuidArray(ids), groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping list items: %w", err)
	}
	return scanItems(rows)
}

func (r *shoppingListItemRepository) GetByList(ctx context.Context, listID uuid.UUID) ([]*models.ShoppingListItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM shopping_list_items
		WHERE shopping_list_id = $1
		ORDER BY position ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping list items: %w", err)
	}
	return scanItems(rows)
}

// ApplyChanges runs at most three statements (insert, update, delete) in
// one transaction; each statement covers its whole batch through unnest.
func (r *shoppingListItemRepository) ApplyChanges(ctx context.Context, changes repository.ItemChanges) (*models.ShoppingListItemsCollection, error) {
	out := &models.ShoppingListItemsCollection{
		CreatedItems: []models.ShoppingListItem{},
		UpdatedItems: []models.ShoppingListItem{},
		DeletedItems: []models.ShoppingListItem{},
	}
	now := time.Now().UTC()

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if len(changes.Create) > 0 {
			created, err := insertItems(ctx, tx, changes.Create, now)
			if err != nil {
				return err
			}
			out.CreatedItems = created
		}
		if len(changes.Update) > 0 {
			updated, err := updateItems(ctx, tx, changes.Update, now)
			if err != nil {
				return err
			}
			out.UpdatedItems = updated
		}
		if len(changes.Delete) > 0 {
			deleted, err := deleteItems(ctx, tx, changes.Delete)
			if err != nil {
				return err
			}
			out.DeletedItems = deleted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// itemArrays is the column-wise form of a batch, one array per column
type itemArrays struct {
	ids, lists, notes                     []string
	positions                             []int64
	checked                               []bool
	quantities                            []float64
	foods, units, labels, recipes, ingred []*uuid.UUID
}

func toArrays(items []models.ShoppingListItem) itemArrays {
	a := itemArrays{}
	for _, it := range items {
		a.ids = append(a.ids, it.ID.String())
		a.lists = append(a.lists, it.ShoppingListID.String())
		a.positions = append(a.positions, int64(it.Position))
		a.checked = append(a.checked, it.Checked)
		a.quantities = append(a.quantities, it.Quantity)
		a.notes = append(a.notes, it.Note)
		a.foods = append(a.foods, it.FoodID)
		a.units = append(a.units, it.UnitID)
		a.labels = append(a.labels, it.LabelID)
		a.recipes = append(a.recipes, it.RecipeID)
		a.ingred = append(a.ingred, it.RecipeIngredientID)
	}
	return a
}

func (a itemArrays) args() []any {
	return []any{
		pq.Array(a.ids),
		pq.Array(a.lists),
		pq.Array(a.positions),
		pq.Array(a.checked),
		pq.Array(a.quantities),
		pq.Array(a.notes),
		nullableUUIDArray(a.foods),
		nullableUUIDArray(a.units),
		nullableUUIDArray(a.labels),
		nullableUUIDArray(a.recipes),
		nullableUUIDArray(a.ingred),
	}
}

const unnestItems = `unnest($1::uuid[], $2::uuid[], $3::int[], $4::bool[], $5::float8[], $6::text[],
	$7::uuid[], $8::uuid[], $9::uuid[], $10::uuid[], $11::uuid[])`

func insertItems(ctx context.Context, q queryer, items []models.ShoppingListItem, now time.Time) ([]models.ShoppingListItem, error) {
	batch := make([]models.ShoppingListItem, len(items))
	copy(batch, items)
	for i := range batch {
		if batch[i].ID == uuid.Nil {
			batch[i].ID = uuid.New()
		}
	}

	query := `
		INSERT INTO shopping_list_items (` + itemColumns + `)
		SELECT u.*, $12::timestamptz, $12::timestamptz
		FROM ` + unnestItems + ` AS u
		RETURNING ` + itemColumns

	args := append(toArrays(batch).args(), now)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert shopping list items: %w", err)
	}
	created, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	return inOrder(batch, created), nil
}

func updateItems(ctx context.Context, q queryer, items []models.ShoppingListItem, now time.Time) ([]models.ShoppingListItem, error) {
	query := `
		UPDATE shopping_list_items AS i
		SET shopping_list_id = u.shopping_list_id,
		    position = u.position,
		    checked = u.checked,
		    quantity = u.quantity,
		    note = u.note,
		    food_id = u.food_id,
		    unit_id = u.unit_id,
		    label_id = u.label_id,
		    recipe_id = u.recipe_id,
		    recipe_ingredient_id = u.recipe_ingredient_id,
		    updated_at = $12
		FROM ` + unnestItems + ` AS u(id, shopping_list_id, position, checked, quantity, note,
			food_id, unit_id, label_id, recipe_id, recipe_ingredient_id)
		WHERE i.id = u.id
		RETURNING ` + prefixedItemColumns

	args := append(toArrays(items).args(), now)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update shopping list items: %w", err)
	}
	updated, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if len(updated) != len(items) {
		return nil, fmt.Errorf("updated %d of %d shopping list items: %w", len(updated), len(items), repository.ErrNotFound)
	}
	return inOrder(items, updated), nil
}

func deleteItems(ctx context.Context, q queryer, ids []uuid.UUID) ([]models.ShoppingListItem, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	query := `
		DELETE FROM shopping_list_items
		WHERE id = ANY($1::uuid[])
		RETURNING ` + itemColumns

	rows, err := q.QueryContext(ctx, query, uuidArray(unique))
	if err != nil {
		return nil, fmt.Errorf("failed to delete shopping list items: %w", err)
	}
	deleted, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if len(deleted) != len(unique) {
		return nil, fmt.Errorf("deleted %d of %d shopping list items: %w", len(deleted), len(unique), repository.ErrNotFound)
	}

	order := make([]models.ShoppingListItem, len(unique))
	for i, id := range unique {
		order[i].ID = id
	}
	return inOrder(order, deleted), nil
}

// inOrder returns the rows in the order of the request batch
func inOrder(request []models.ShoppingListItem, rows []*models.ShoppingListItem) []models.ShoppingListItem {
	byID := make(map[uuid.UUID]*models.ShoppingListItem, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	out := make([]models.ShoppingListItem, 0, len(rows))
	for _, req := range request {
		if row, ok := byID[req.ID]; ok {
			out = append(out, *row)
			delete(byID, req.ID)
		}
	}
	return out
}
