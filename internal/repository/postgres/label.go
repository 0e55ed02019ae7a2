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

type labelRepository struct {
	db *sql.DB
}

// NewLabelRepository creates a new multi purpose label repository
func NewLabelRepository(db *sql.DB) repository.LabelRepository {
	return &labelRepository{db: db}
}

const labelColumns = `id, group_id, name, color, created_at, updated_at`

func scanLabel(row scanner) (*models.MultiPurposeLabel, error) {
	label := &models.MultiPurposeLabel{}
	err := row.Scan(
		&label.ID,
		&label.GroupID,
		&label.Name,
		&label.Color,
		&label.CreatedAt,
		&label.UpdatedAt,
	)
	return label, err
}

func (r *labelRepository) Create(ctx context.Context, groupID uuid.UUID, data models.LabelCreate) (*models.MultiPurposeLabel, error) {
	query := `
		INSERT INTO multi_purpose_labels (` + labelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING ` + labelColumns

	label, err := scanLabel(r.db.QueryRowContext(ctx, query,
		uuid.New(), groupID, data.Name, data.Color, time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create label: %w", err)
	}
	return label, nil
}

func (r *labelRepository) GetByID(ctx context.Context, groupID, id uuid.UUID) (*models.MultiPurposeLabel, error) {
	query := `SELECT ` + labelColumns + ` FROM multi_purpose_labels WHERE id = $1 AND group_id = $2`

	label, err := scanLabel(r.db.QueryRowContext(ctx, query, id, groupID))
	if err != nil {
		return nil, fmt.Errorf("failed to get label: %w", notFound(err))
	}
	return label, nil
}

func (r *labelRepository) GetAll(ctx context.Context, groupID uuid.UUID, page repository.Pagination) ([]*models.MultiPurposeLabel, error) {
	query := `
		SELECT ` + labelColumns + `
		FROM multi_purpose_labels
		WHERE group_id = $1
		ORDER BY name ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, groupID, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	labels := []*models.MultiPurposeLabel{}
	for rows.Next() {
		label, err := scanLabel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}

	return labels, rows.Err()
}

func (r *labelRepository) Update(ctx context.Context, groupID, id uuid.UUID, data models.LabelUpdate) (*models.MultiPurposeLabel, error) {
	query := `
		UPDATE multi_purpose_labels
		SET name = $3, color = $4, updated_at = $5
		WHERE id = $1 AND group_id = $2
		RETURNING ` + labelColumns

	label, err := scanLabel(r.db.QueryRowContext(ctx, query, id, groupID, data.Name, data.Color, time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to update label: %w", notFound(err))
	}
	return label, nil
}

// Delete removes the label. Foreign keys on items and foods are declared
// ON DELETE SET NULL, so referencing rows survive with the label cleared.
func (r *labelRepository) Delete(ctx context.Context, groupID, id uuid.UUID) (*models.MultiPurposeLabel, error) {
	query := `
		DELETE FROM multi_purpose_labels
		WHERE id = $1 AND group_id = $2
		RETURNING ` + labelColumns

	label, err := scanLabel(r.db.QueryRowContext(ctx, query, id, groupID))
	if err != nil {
		return nil, fmt.Errorf("failed to delete label: %w", notFound(err))
	}
	return label, nil
}
