package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/internal/repository/memory"
	"github.com/Kerhoff/cookbook/pkg/logger"
)

type fakeVerifier struct {
	identity *DirectoryIdentity
	err      error
	calls    int
}

func (f *fakeVerifier) Verify(context.Context, string, string) (*DirectoryIdentity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := *f.identity
	return &out, nil
}

func seedLocalUser(t *testing.T, store *memory.Store, username, email, password string) *models.User {
	t.Helper()
	ctx := context.Background()

	group, err := store.Groups().Create(ctx, &models.Group{Name: "Home"})
	require.NoError(t, err)

	hash, err := HashPassword(password)
	require.NoError(t, err)

	user, err := store.Users().Create(ctx, &models.User{
		GroupID:    group.ID,
		Username:   username,
		Email:      email,
		Password:   hash,
		AuthMethod: models.AuthMethodLocal,
	})
	require.NoError(t, err)
	return user
}

func TestAuthenticateLocal(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	user := seedLocalUser(t, store, "alice", "alice@example.com", "correct horse")
	auth := NewAuthenticator(store.Users(), store.Groups(), nil, "Home", logger.Discard())

	t.Run("ByUsername", func(t *testing.T) {
		got, err := auth.Authenticate(ctx, "alice", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("ByEmail", func(t *testing.T) {
		got, err := auth.Authenticate(ctx, "ALICE@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, "alice", "battery staple")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, "mallory", "correct horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("EmptyIdentifier", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, "", "correct horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("ExternalUserRejected", func(t *testing.T) {
		_, err := store.Users().Create(ctx, &models.User{
			GroupID:    user.GroupID,
			Username:   "bob",
			Email:      "bob@example.com",
			Password:   models.ExternalPasswordMarker,
			AuthMethod: models.AuthMethodLDAP,
		})
		require.NoError(t, err)

		_, err = auth.Authenticate(ctx, "bob", models.ExternalPasswordMarker)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthenticateDirectory(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesShadowUser", func(t *testing.T) {
		store := memory.New()
		verifier := &fakeVerifier{identity: &DirectoryIdentity{
			Username: "jdoe",
			Email:    "jane@example.com",
			FullName: "Jane Doe",
		}}
		auth := NewAuthenticator(store.Users(), store.Groups(), verifier, "Home", logger.Discard())

		user, err := auth.Authenticate(ctx, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "jdoe", user.Username)
		assert.Equal(t, "jane@example.com", user.Email)
		assert.Equal(t, "Jane Doe", user.FullName)
		assert.False(t, user.Admin)
		assert.Equal(t, models.AuthMethodLDAP, user.AuthMethod)
		assert.Equal(t, models.ExternalPasswordMarker, user.Password)

		group, err := store.Groups().GetByName(ctx, "home")
		require.NoError(t, err)
		assert.Equal(t, group.ID, user.GroupID)

		again, err := auth.Authenticate(ctx, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID, "second login reuses the shadow record")
	})

	t.Run("RefreshesAttributes", func(t *testing.T) {
		store := memory.New()
		verifier := &fakeVerifier{identity: &DirectoryIdentity{Username: "jdoe", Email: "jane@example.com", FullName: "Jane Doe"}}
		auth := NewAuthenticator(store.Users(), store.Groups(), verifier, "Home", logger.Discard())

		_, err := auth.Authenticate(ctx, "jdoe", "hunter2")
		require.NoError(t, err)

		verifier.identity.Email = "jane.doe@example.com"
		verifier.identity.FullName = "Jane Q. Doe"
		user, err := auth.Authenticate(ctx, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "jane.doe@example.com", user.Email)
		assert.Equal(t, "Jane Q. Doe", user.FullName)
	})

	t.Run("AdminPreservedWithoutAdminCheck", func(t *testing.T) {
		store := memory.New()
		existing := seedLocalUser(t, store, "jdoe", "jane@example.com", "irrelevant")
		existing.Admin = true
		_, err := store.Users().Update(ctx, existing)
		require.NoError(t, err)

		verifier := &fakeVerifier{identity: &DirectoryIdentity{Username: "jdoe", Email: "jane@example.com"}}
		auth := NewAuthenticator(store.Users(), store.Groups(), verifier, "Home", logger.Discard())

		user, err := auth.Authenticate(ctx, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.True(t, user.Admin)
	})

	t.Run("AdminOverwrittenWhenChecked", func(t *testing.T) {
		store := memory.New()
		existing := seedLocalUser(t, store, "jdoe", "jane@example.com", "irrelevant")
		existing.Admin = true
		_, err := store.Users().Update(ctx, existing)
		require.NoError(t, err)

		verifier := &fakeVerifier{identity: &DirectoryIdentity{
			Username:     "jdoe",
			Email:        "jane@example.com",
			Admin:        false,
			AdminChecked: true,
		}}
		auth := NewAuthenticator(store.Users(), store.Groups(), verifier, "Home", logger.Discard())

		user, err := auth.Authenticate(ctx, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.False(t, user.Admin)

		verifier.identity.Admin = true
		user, err = auth.Authenticate(ctx, "jdoe", "hunter2")
		require.NoError(t, err)
		assert.True(t, user.Admin)
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		store := memory.New()
		verifier := &fakeVerifier{err: ErrInvalidCredentials}
		auth := NewAuthenticator(store.Users(), store.Groups(), verifier, "Home", logger.Discard())

		_, err := auth.Authenticate(ctx, "jdoe", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = store.Users().GetByUsername(ctx, "jdoe")
		assert.Error(t, err, "no shadow user for a failed login")
	})

	t.Run("TransportErrorIsDistinct", func(t *testing.T) {
		store := memory.New()
		verifier := &fakeVerifier{err: &DirectoryTransportError{Op: "user bind", Err: errors.New("reset")}}
		auth := NewAuthenticator(store.Users(), store.Groups(), verifier, "Home", logger.Discard())

		_, err := auth.Authenticate(ctx, "jdoe", "hunter2")
		var transportErr *DirectoryTransportError
		assert.ErrorAs(t, err, &transportErr)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("LocalPasswordIgnoredWhenDirectoryEnabled", func(t *testing.T) {
		store := memory.New()
		seedLocalUser(t, store, "alice", "alice@example.com", "correct horse")
		verifier := &fakeVerifier{err: ErrInvalidCredentials}
		auth := NewAuthenticator(store.Users(), store.Groups(), verifier, "Home", logger.Discard())

		_, err := auth.Authenticate(ctx, "alice", "correct horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, 1, verifier.calls)
	})
}
