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

type recipeRepository struct {
	db *sql.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *sql.DB) repository.RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	rec := *recipe
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO recipes (id, group_id, name, slug, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`

		if _, err := tx.ExecContext(ctx, query,
			rec.ID, rec.GroupID, rec.Name, rec.Slug, rec.CreatedAt, rec.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}

		ingredientQuery := `
			INSERT INTO recipe_ingredients (id, recipe_id, position, food_id, unit_id, quantity, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`

		for i, ing := range recipe.Ingredients {
			if ing.ID == uuid.Nil {
				ing.ID = uuid.New()
			}
			if _, err := tx.ExecContext(ctx, ingredientQuery,
				ing.ID, rec.ID, i, toNull(ing.FoodID), toNull(ing.UnitID), ing.Quantity, ing.Note,
			); err != nil {
				return fmt.Errorf("failed to create recipe ingredient: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, rec.GroupID, rec.ID)
}

func (r *recipeRepository) GetByID(ctx context.Context, groupID, id uuid.UUID) (*models.Recipe, error) {
	query := `
		SELECT id, group_id, name, slug, created_at, updated_at
		FROM recipes
		WHERE id = $1 AND group_id = $2`

	rec := &models.Recipe{}
	err := r.db.QueryRowContext(ctx, query, id, groupID).Scan(
		&rec.ID,
		&rec.GroupID,
		&rec.Name,
		&rec.Slug,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", notFound(err))
	}

	ingredientQuery := `
		SELECT ri.id, ri.recipe_id, ri.position, ri.food_id, ri.unit_id, ri.quantity, ri.note,
		       f.name, f.label_id
		FROM recipe_ingredients ri
		LEFT JOIN ingredient_foods f ON f.id = ri.food_id
		WHERE ri.recipe_id = $1
		ORDER BY ri.position ASC`

	rows, err := r.db.QueryContext(ctx, ingredientQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe ingredients: %w", err)
	}
	defer rows.Close()

	rec.Ingredients = []models.RecipeIngredient{}
	for rows.Next() {
		var (
			ing            models.RecipeIngredient
			foodID, unitID uuid.NullUUID
			foodName       sql.NullString
			foodLabel      uuid.NullUUID
		)
		if err := rows.Scan(
			&ing.ID, &ing.RecipeID, &ing.Position, &foodID, &unitID, &ing.Quantity, &ing.Note,
			&foodName, &foodLabel,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		ing.FoodID = fromNull(foodID)
		ing.UnitID = fromNull(unitID)
		if foodID.Valid {
			ing.Food = &models.Food{
				ID:      foodID.UUID,
				GroupID: groupID,
				Name:    foodName.String,
				LabelID: fromNull(foodLabel),
			}
		}
		rec.Ingredients = append(rec.Ingredients, ing)
	}

	return rec, rows.Err()
}
