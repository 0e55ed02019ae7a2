package auth

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is the single failure returned for unknown users and
// wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// DirectoryConfigurationError means the directory could not be reached or
// rejected the service account. Retrying the same request will not help.
type DirectoryConfigurationError struct {
	Op  string
	Err error
}

func (e *DirectoryConfigurationError) Error() string {
	return fmt.Sprintf("directory configuration error during %s: %v", e.Op, e.Err)
}

func (e *DirectoryConfigurationError) Unwrap() error { return e.Err }

// DirectoryTransportError is any directory failure that happened after a
// successful service bind and is not a credential rejection.
type DirectoryTransportError struct {
	Op  string
	Err error
}

func (e *DirectoryTransportError) Error() string {
	return fmt.Sprintf("directory transport error during %s: %v", e.Op, e.Err)
}

func (e *DirectoryTransportError) Unwrap() error { return e.Err }
