package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository"
)

// Verifier checks credentials against an external directory.
// *DirectoryAdapter is the production implementation.
type Verifier interface {
	Verify(ctx context.Context, identifier, password string) (*DirectoryIdentity, error)
}

// Authenticator resolves a login to a user, either from the local password
// hash or through a directory with a local shadow record.
type Authenticator struct {
	users        repository.UserRepository
	groups       repository.GroupRepository
	directory    Verifier
	defaultGroup string
	logger       *logrus.Logger
}

// NewAuthenticator creates an authenticator. A nil directory means local
// passwords only.
func NewAuthenticator(
	users repository.UserRepository,
	groups repository.GroupRepository,
	directory Verifier,
	defaultGroup string,
	logger *logrus.Logger,
) *Authenticator {
	return &Authenticator{
		users:        users,
		groups:       groups,
		directory:    directory,
		defaultGroup: defaultGroup,
		logger:       logger,
	}
}

// Authenticate returns the user for identifier (username or email) and
// password. Wrong or unknown credentials always yield ErrInvalidCredentials;
// anything else is an internal or directory error.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	if a.directory != nil {
		return a.authenticateDirectory(ctx, identifier, password)
	}
	return a.authenticateLocal(ctx, identifier, password)
}

func (a *Authenticator) authenticateLocal(ctx context.Context, identifier, password string) (*models.User, error) {
	if identifier == "" {
		burnCompare(password)
		return nil, ErrInvalidCredentials
	}

	user, err := a.lookup(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		burnCompare(password)
		a.logger.WithField("identifier", identifier).Info("Login failed")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.IsExternal() || !VerifyPassword(user.Password, password) {
		a.logger.WithField("identifier", identifier).Info("Login failed")
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (a *Authenticator) authenticateDirectory(ctx context.Context, identifier, password string) (*models.User, error) {
	identity, err := a.directory.Verify(ctx, identifier, password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			a.logger.WithError(err).WithField("identifier", identifier).Error("Directory login failed")
		}
		return nil, err
	}

	user, err := a.lookup(ctx, identity.Username)
	if errors.Is(err, repository.ErrNotFound) && identity.Email != "" {
		user, err = a.users.GetByEmail(ctx, identity.Email)
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return a.createShadow(ctx, identity)
	case err != nil:
		return nil, err
	}

	if identity.Email != "" {
		user.Email = identity.Email
	}
	if identity.FullName != "" {
		user.FullName = identity.FullName
	}
	if identity.AdminChecked {
		user.Admin = identity.Admin
	}

	updated, err := a.users.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh directory user: %w", err)
	}
	return updated, nil
}

func (a *Authenticator) createShadow(ctx context.Context, identity *DirectoryIdentity) (*models.User, error) {
	group, err := a.ensureGroup(ctx)
	if err != nil {
		return nil, err
	}

	user, err := a.users.Create(ctx, &models.User{
		GroupID:    group.ID,
		Username:   identity.Username,
		Email:      identity.Email,
		FullName:   identity.FullName,
		Admin:      identity.Admin,
		Password:   models.ExternalPasswordMarker,
		AuthMethod: models.AuthMethodLDAP,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create directory user: %w", err)
	}

	a.logger.WithFields(logrus.Fields{
		"username": user.Username,
		"group":    group.Name,
	}).Info("Created user from directory")
	return user, nil
}

func (a *Authenticator) ensureGroup(ctx context.Context) (*models.Group, error) {
	group, err := a.groups.GetByName(ctx, a.defaultGroup)
	if errors.Is(err, repository.ErrNotFound) {
		return a.groups.Create(ctx, &models.Group{Name: a.defaultGroup})
	}
	return group, err
}

func (a *Authenticator) lookup(ctx context.Context, identifier string) (*models.User, error) {
	user, err := a.users.GetByUsername(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return a.users.GetByEmail(ctx, identifier)
	}
	return user, err
}
