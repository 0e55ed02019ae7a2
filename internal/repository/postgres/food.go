package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

type foodRepository struct {
	db *sql.DB
}

// NewFoodRepository creates a new food and unit repository
func NewFoodRepository(db *sql.DB) repository.FoodRepository {
	return &foodRepository{db: db}
}

// EnsureFood returns the group's food with the given name, creating it if needed
func (r *foodRepository) EnsureFood(ctx context.Context, groupID uuid.UUID, name string) (*models.Food, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO ingredient_foods (id, group_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, lower(name)) DO UPDATE SET name = ingredient_foods.name
		RETURNING id, group_id, name, label_id`

	food := &models.Food{}
	var labelID uuid.NullUUID
	err := r.db.QueryRowContext(ctx, query, uuid.New(), groupID, name).Scan(
		&food.ID,
		&food.GroupID,
		&food.Name,
		&labelID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure food: %w", err)
	}
	food.LabelID = fromNull(labelID)

	return food, nil
}

// EnsureUnit returns the group's unit with the given name, creating it if needed
func (r *foodRepository) EnsureUnit(ctx context.Context, groupID uuid.UUID, name string) (*models.Unit, error) {
	query := `
		INSERT INTO ingredient_units (id, group_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, lower(name)) DO UPDATE SET name = ingredient_units.name
		RETURNING id, group_id, name`

	unit := &models.Unit{}
	err := r.db.QueryRowContext(ctx, query, uuid.New(), groupID, name).Scan(
		&unit.ID,
		&unit.GroupID,
		&unit.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure unit: %w", err)
	}

	return unit, nil
}

func (r *foodRepository) GetFood(ctx context.Context, groupID, id uuid.UUID) (*models.Food, error) {
	query := `SELECT id, group_id, name, label_id FROM ingredient_foods WHERE id = $1 AND group_id = $2`

	food := &models.Food{}
	var labelID uuid.NullUUID
	err := r.db.QueryRowContext(ctx, query, id, groupID).Scan(
		&food.ID,
		&food.GroupID,
		&food.Name,
		&labelID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get food: %w", notFound(err))
	}
	food.LabelID = fromNull(labelID)

	return food, nil
}

func (r *foodRepository) GetUnit(ctx context.Context, groupID, id uuid.UUID) (*models.Unit, error) {
	query := `SELECT id, group_id, name FROM ingredient_units WHERE id = $1 AND group_id = $2`

	unit := &models.Unit{}
	err := r.db.QueryRowContext(ctx, query, id, groupID).Scan(
		&unit.ID,
		&unit.GroupID,
		&unit.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", notFound(err))
	}

	return unit, nil
}
