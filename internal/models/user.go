package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthMethod tells how a user proves their identity
type AuthMethod string

const (
	AuthMethodLocal AuthMethod = "local"
	AuthMethodLDAP  AuthMethod = "ldap"
)

// ExternalPasswordMarker is stored in place of a password hash for users
// whose credentials live in an external directory.
const ExternalPasswordMarker = "LDAP"

// User represents an account in the system
type User struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	GroupID    uuid.UUID  `json:"group_id" db:"group_id"`
	Username   string     `json:"username" db:"username"`
	Email      string     `json:"email" db:"email"`
	FullName   string     `json:"full_name" db:"full_name"`
	Admin      bool       `json:"admin" db:"admin"`
	Password   string     `json:"-" db:"password"`
	AuthMethod AuthMethod `json:"auth_method" db:"auth_method"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// IsExternal returns true if the user authenticates against a directory
func (u *User) IsExternal() bool {
	return u.AuthMethod == AuthMethodLDAP || u.Password == ExternalPasswordMarker
}

// DisplayName returns the best display name for the user
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
