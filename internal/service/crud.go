package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

// Crud puts payload validation in front of a group-scoped repository. It
// satisfies repository.Crud itself, so handlers written against that
// interface work with either.
type Crud[C any, S any, U any] struct {
	repo           repository.Crud[C, S, U]
	validateCreate func(C) error
	validateUpdate func(U) error
}

// NewCrud wraps repo. Nil validators accept everything.
func NewCrud[C any, S any, U any](repo repository.Crud[C, S, U], validateCreate func(C) error, validateUpdate func(U) error) *Crud[C, S, U] {
	return &Crud[C, S, U]{repo: repo, validateCreate: validateCreate, validateUpdate: validateUpdate}
}

var _ repository.LabelRepository = (*Crud[models.LabelCreate, models.MultiPurposeLabel, models.LabelUpdate])(nil)

func (c *Crud[C, S, U]) Create(ctx context.Context, groupID uuid.UUID, data C) (*S, error) {
	if c.validateCreate != nil {
		if err := c.validateCreate(data); err != nil {
			return nil, err
		}
	}
	return c.repo.Create(ctx, groupID, data)
}

func (c *Crud[C, S, U]) GetByID(ctx context.Context, groupID, id uuid.UUID) (*S, error) {
	return c.repo.GetByID(ctx, groupID, id)
}

func (c *Crud[C, S, U]) GetAll(ctx context.Context, groupID uuid.UUID, page repository.Pagination) ([]*S, error) {
	return c.repo.GetAll(ctx, groupID, page)
}

func (c *Crud[C, S, U]) Update(ctx context.Context, groupID, id uuid.UUID, data U) (*S, error) {
	if c.validateUpdate != nil {
		if err := c.validateUpdate(data); err != nil {
			return nil, err
		}
	}
	return c.repo.Update(ctx, groupID, id, data)
}

func (c *Crud[C, S, U]) Delete(ctx context.Context, groupID, id uuid.UUID) (*S, error) {
	return c.repo.Delete(ctx, groupID, id)
}

const maxColorLength = 10

func validateLabel(name, color string) error {
	var p problems
	if strings.TrimSpace(name) == "" {
		p.addf("name must not be empty")
	}
	if len(name) > 255 {
		p.addf("name must be at most 255 characters")
	}
	if len(color) > maxColorLength {
		p.addf("color must be at most %d characters", maxColorLength)
	}
	return p.err()
}

func validateLabelCreate(data models.LabelCreate) error { return validateLabel(data.Name, data.Color) }

func validateLabelUpdate(data models.LabelUpdate) error { return validateLabel(data.Name, data.Color) }

func validateListCreate(data models.ShoppingListCreate) error {
	if strings.TrimSpace(data.Name) == "" {
		return invalid("name must not be empty")
	}
	return nil
}

func validateListUpdate(data models.ShoppingListUpdate) error {
	return validateListCreate(models.ShoppingListCreate(data))
}
