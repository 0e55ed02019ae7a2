package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/cookbook/internal/auth"
	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

// Repositories bundles the data access the service works on
type Repositories struct {
	Groups  repository.GroupRepository
	Users   repository.UserRepository
	Labels  repository.LabelRepository
	Lists   repository.ShoppingListRepository
	Items   repository.ShoppingListItemRepository
	Recipes repository.RecipeRepository
	Foods   repository.FoodRepository
}

// Service is the business logic layer. Every call takes the caller's group
// explicitly; nothing is cached between calls.
type Service struct {
	logger *logrus.Logger
	repos  Repositories

	// Labels and Lists are the validated CRUD views used by the API
	Labels *Crud[models.LabelCreate, models.MultiPurposeLabel, models.LabelUpdate]
	Lists  *Crud[models.ShoppingListCreate, models.ShoppingList, models.ShoppingListUpdate]
}

// New creates a new Service with all required dependencies.
func New(logger *logrus.Logger, repos Repositories) *Service {
	return &Service{
		logger: logger,
		repos:  repos,
		Labels: NewCrud(repos.Labels, validateLabelCreate, validateLabelUpdate),
		Lists:  NewCrud(repos.Lists, validateListCreate, validateListUpdate),
	}
}

// EnsureGroup retrieves the group with the given name, creating it if it
// does not exist yet.
func (s *Service) EnsureGroup(ctx context.Context, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("group name must not be empty")
	}

	group, err := s.repos.Groups.GetByName(ctx, name)
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to lookup group %q: %w", name, err)
	}

	group, err = s.repos.Groups.Create(ctx, &models.Group{Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to create group %q: %w", name, err)
	}
	s.logger.Infof("Created new group: %q", name)
	return group, nil
}

// EnsureAdmin makes sure a local administrator with the given username
// exists in the named group. An existing account is left untouched.
func (s *Service) EnsureAdmin(ctx context.Context, groupName, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	var p problems
	if username == "" {
		p.addf("username must not be empty")
	}
	if email == "" {
		p.addf("email must not be empty")
	}
	if password == "" {
		p.addf("password must not be empty")
	}
	if err := p.err(); err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to lookup user %q: %w", username, err)
	}

	group, err := s.EnsureGroup(ctx, groupName)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err = s.repos.Users.Create(ctx, &models.User{
		GroupID:    group.ID,
		Username:   username,
		Email:      email,
		FullName:   username,
		Admin:      true,
		Password:   hash,
		AuthMethod: models.AuthMethodLocal,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}
	s.logger.Infof("Created admin user: %s (group=%q)", user.DisplayName(), group.Name)
	return user, nil
}

// GetUser returns the user with the given id
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repos.Users.GetByID(ctx, id)
}
