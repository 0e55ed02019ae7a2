package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

// LabelRepository is the in-memory repository.LabelRepository
type LabelRepository struct{ s *Store }

var _ repository.LabelRepository = (*LabelRepository)(nil)

func (r *LabelRepository) Create(_ context.Context, groupID uuid.UUID, data models.LabelCreate) (*models.MultiPurposeLabel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	l := &models.MultiPurposeLabel{
		ID:        uuid.New(),
		GroupID:   groupID,
		Name:      data.Name,
		Color:     data.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.labels[l.ID] = l
	out := *l
	return &out, nil
}

func (r *LabelRepository) GetByID(_ context.Context, groupID, id uuid.UUID) (*models.MultiPurposeLabel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.labels[id]
	if !ok || l.GroupID != groupID {
		return nil, repository.ErrNotFound
	}
	out := *l
	return &out, nil
}

func (r *LabelRepository) GetAll(_ context.Context, groupID uuid.UUID, p repository.Pagination) ([]*models.MultiPurposeLabel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []*models.MultiPurposeLabel
	for _, l := range r.s.labels {
		if l.GroupID == groupID {
			out := *l
			all = append(all, &out)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, p.Offset(), p.Limit()), nil
}

func (r *LabelRepository) Update(_ context.Context, groupID, id uuid.UUID, data models.LabelUpdate) (*models.MultiPurposeLabel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.labels[id]
	if !ok || l.GroupID != groupID {
		return nil, repository.ErrNotFound
	}
	l.Name = data.Name
	l.Color = data.Color
	l.UpdatedAt = r.s.now()
	out := *l
	return &out, nil
}

func (r *LabelRepository) Delete(_ context.Context, groupID, id uuid.UUID) (*models.MultiPurposeLabel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.labels[id]
	if !ok || l.GroupID != groupID {
		return nil, repository.ErrNotFound
	}
	delete(r.s.labels, id)

	for _, item := range r.s.items {
		if item.LabelID != nil && *item.LabelID == id {
			item.LabelID = nil
		}
	}
	for _, food := range r.s.foods {
		if food.LabelID != nil && *food.LabelID == id {
			food.LabelID = nil
		}
	}
	return l, nil
}
