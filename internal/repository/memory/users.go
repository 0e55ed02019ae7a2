package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

// GroupRepository is the in-memory repository.GroupRepository
type GroupRepository struct{ s *Store }

var _ repository.GroupRepository = (*GroupRepository)(nil)

func (r *GroupRepository) Create(_ context.Context, group *models.Group) (*models.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g := *group
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	g.CreatedAt = r.s.now()
	g.UpdatedAt = g.CreatedAt
	r.s.groups[g.ID] = &g
	out := g
	return &out, nil
}

func (r *GroupRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *g
	return &out, nil
}

func (r *GroupRepository) GetByName(_ context.Context, name string) (*models.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, g := range r.s.groups {
		if strings.EqualFold(g.Name, name) {
			out := *g
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

// UserRepository is the in-memory repository.UserRepository
type UserRepository struct{ s *Store }

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := *user
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = &u
	out := u
	return &out, nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Update(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := *user
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = r.s.now()
	r.s.users[u.ID] = &u
	out := u
	return &out, nil
}
