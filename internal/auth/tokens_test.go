package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/cookbook/internal/models"
)

func TestAccessToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	user := &models.User{ID: uuid.New(), GroupID: uuid.New(), Username: "alice"}

	token, err := issuer.CreateAccessToken(user)
	require.NoError(t, err)

	t.Run("RoundTrip", func(t *testing.T) {
		id, err := issuer.ParseAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, id)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		_, err := NewTokenIssuer("other", time.Hour).ParseAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		late := NewTokenIssuer("secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.ParseAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := issuer.ParseAccessToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestFileToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.CreateFileToken("/data/recipes/pancakes.json")
	require.NoError(t, err)

	path, err := issuer.ValidateFileToken(token)
	require.NoError(t, err)
	assert.Equal(t, "/data/recipes/pancakes.json", path)

	t.Run("NotAnAccessToken", func(t *testing.T) {
		_, err := issuer.ParseAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("AccessTokenIsNotAFileToken", func(t *testing.T) {
		access, err := issuer.CreateAccessToken(&models.User{ID: uuid.New()})
		require.NoError(t, err)
		_, err = issuer.ValidateFileToken(access)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, VerifyPassword(hash, "s3cret"))
	assert.False(t, VerifyPassword(hash, "S3cret"))
	assert.False(t, VerifyPassword(models.ExternalPasswordMarker, "LDAP"))
}
