package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Kerhoff/cookbook/internal/models"
)

// ErrInvalidToken is returned for malformed, expired or foreign tokens
var ErrInvalidToken = errors.New("invalid token")

const (
	accessAudience = "cookbook:access"
	fileAudience   = "cookbook:file"

	// FileTokenTTL bounds how long a signed download link stays valid
	FileTokenTTL = 30 * time.Minute
)

// AccessClaims are carried by bearer tokens
type AccessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	GroupID  string `json:"group"`
}

type fileClaims struct {
	jwt.RegisteredClaims
	File string `json:"file"`
}

// TokenIssuer signs and checks HS256 tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer for access tokens valid for ttl
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// CreateAccessToken issues a bearer token for user
func (t *TokenIssuer) CreateAccessToken(user *models.User) (string, error) {
	now := t.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings{accessAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Username: user.Username,
		GroupID:  user.GroupID.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken returns the user id a bearer token was issued for
func (t *TokenIssuer) ParseAccessToken(token string) (uuid.UUID, error) {
	claims := &AccessClaims{}
	if err := t.parse(token, claims, accessAudience); err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// CreateFileToken signs a path so it can be fetched without a bearer token
func (t *TokenIssuer) CreateFileToken(path string) (string, error) {
	now := t.now()
	claims := fileClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{fileAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(FileTokenTTL)),
		},
		File: path,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign file token: %w", err)
	}
	return signed, nil
}

// ValidateFileToken returns the path a file token was issued for
func (t *TokenIssuer) ValidateFileToken(token string) (string, error) {
	claims := &fileClaims{}
	if err := t.parse(token, claims, fileAudience); err != nil {
		return "", err
	}
	if claims.File == "" {
		return "", ErrInvalidToken
	}
	return claims.File, nil
}

func (t *TokenIssuer) parse(token string, claims jwt.Claims, audience string) error {
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
