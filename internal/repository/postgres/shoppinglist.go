package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

type shoppingListRepository struct {
	db    *sql.DB
	items *shoppingListItemRepository
}

// NewShoppingListRepository creates a new shopping list repository
func NewShoppingListRepository(db *sql.DB) repository.ShoppingListRepository {
	return &shoppingListRepository{db: db, items: &shoppingListItemRepository{db: db}}
}

const listColumns = `id, group_id, name, created_at, updated_at`

func scanList(row scanner) (*models.ShoppingList, error) {
	list := &models.ShoppingList{}
	err := row.Scan(
		&list.ID,
		&list.GroupID,
		&list.Name,
		&list.CreatedAt,
		&list.UpdatedAt,
	)
	return list, err
}

func (r *shoppingListRepository) Create(ctx context.Context, groupID uuid.UUID, data models.ShoppingListCreate) (*models.ShoppingList, error) {
	query := `
		INSERT INTO shopping_lists (` + listColumns + `)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING ` + listColumns

	list, err := scanList(r.db.QueryRowContext(ctx, query, uuid.New(), groupID, data.Name, time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to create shopping list: %w", err)
	}
	list.Items = []models.ShoppingListItem{}
	return list, nil
}

func (r *shoppingListRepository) GetByID(ctx context.Context, groupID, id uuid.UUID) (*models.ShoppingList, error) {
	query := `SELECT ` + listColumns + ` FROM shopping_lists WHERE id = $1 AND group_id = $2`

	list, err := scanList(r.db.QueryRowContext(ctx, query, id, groupID))
	if err != nil {
		return nil, fmt.Errorf("failed to get shopping list: %w", notFound(err))
	}

	items, err := r.items.GetByList(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	list.Items = make([]models.ShoppingListItem, len(items))
	for i, item := range items {
		list.Items[i] = *item
	}

	return list, nil
}

func (r *shoppingListRepository) GetAll(ctx context.Context, groupID uuid.UUID, page repository.Pagination) ([]*models.ShoppingList, error) {
	query := `
		SELECT ` + listColumns + `
		FROM shopping_lists
		WHERE group_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, groupID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping lists: %w", err)
	}
	defer rows.Close()

	lists := []*models.ShoppingList{}
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shopping list: %w", err)
		}
		lists = append(lists, list)
	}

	return lists, rows.Err()
}

func (r *shoppingListRepository) Summaries(ctx context.Context, groupID uuid.UUID, page repository.Pagination) ([]*models.ShoppingListSummary, error) {
	query := `
		SELECT l.id, l.group_id, l.name, l.created_at, l.updated_at, COUNT(i.id)
		FROM shopping_lists l
		LEFT JOIN shopping_list_items i ON i.shopping_list_id = l.id
		WHERE l.group_id = $1
		GROUP BY l.id
		ORDER BY l.created_at ASC, l.id ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, groupID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping list summaries: %w", err)
	}
	defer rows.Close()

	summaries := []*models.ShoppingListSummary{}
	for rows.Next() {
		s := &models.ShoppingListSummary{}
		if err := rows.Scan(&s.ID, &s.GroupID, &s.Name, &s.CreatedAt, &s.UpdatedAt, &s.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan shopping list summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

func (r *shoppingListRepository) ExistingIDs(ctx context.Context, groupID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	query := `SELECT id FROM shopping_lists WHERE group_id = $1 AND id = ANY($2::uuid[])`

	rows, err := r.db.QueryContext(ctx, query, groupID, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query shopping list ids: %w", err)
	}
	defer rows.Close()

	found := make(map[uuid.UUID]bool, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan shopping list id: %w", err)
		}
		found[id] = true
	}

	return found, rows.Err()
}

func (r *shoppingListRepository) Update(ctx context.Context, groupID, id uuid.UUID, data models.ShoppingListUpdate) (*models.ShoppingList, error) {
	query := `
		UPDATE shopping_lists
		SET name = $3, updated_at = $4
		WHERE id = $1 AND group_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, groupID, data.Name, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to update shopping list: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, fmt.Errorf("shopping list with ID %s: %w", id, repository.ErrNotFound)
	}

	return r.GetByID(ctx, groupID, id)
}

func (r *shoppingListRepository) Delete(ctx context.Context, groupID, id uuid.UUID) (*models.ShoppingList, error) {
	list, err := r.GetByID(ctx, groupID, id)
	if err != nil {
		return nil, err
	}

	// Items go with the list through ON DELETE CASCADE.
	query := `DELETE FROM shopping_lists WHERE id = $1 AND group_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete shopping list: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, fmt.Errorf("shopping list with ID %s: %w", id, repository.ErrNotFound)
	}

	return list, nil
}
