// Package common defines shared constants and sentinel errors used across
// the service and transport layers. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")
	ErrorTooLarge     = errors.New("request body too large")

	// Verification errors.
	ErrorInvalidKey = errors.New("invalid verification key")

	// Admin mutation guards.
	ErrorCannotDeleteSelf  = errors.New("admin users cannot delete themselves")
	ErrorCannotDeleteAdmin = fmt.Errorf("%w: cannot delete another admin user", ErrorForbidden)
)
