package common

import "errors"

// Stable machine-readable error codes returned to API callers.
const (
	CodeInvalidCredentials  = "INVALID_AUTHENTICATION_CREDENTIALS"
	CodeInvalidLogin        = "INVALID_EMAIL_OR_PASSWORD"
	CodeUserAlreadyExists   = "USER_ALREADY_EXISTS"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeInvalidKey          = "INVALID_VERIFICATION_KEY"
	CodeNotAuthorizedUpdate = "NOT_AUTHORIZED_TO_UPDATE_THIS_USER"
	CodeCannotDeleteSelf    = "ADMIN_USERS_CANNOT_DELETE_THEMSELVES"
	CodeCannotDeleteAdmin   = "CANNOT_DELETE_ANOTHER_ADMIN_USER"
	CodeValidation          = "VALIDATION_ERROR"
	CodeTooLarge            = "REQUEST_TOO_LARGE"
	CodeInternal            = "INTERNAL_ERROR"
)

// Code maps an error to its stable code. Order matters: the admin guard
// errors wrap ErrorForbidden and must be matched before it.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrorUnauthorized):
		return CodeInvalidCredentials
	case errors.Is(err, ErrorConflict):
		return CodeUserAlreadyExists
	case errors.Is(err, ErrorNotFound):
		return CodeUserNotFound
	case errors.Is(err, ErrorInvalidKey):
		return CodeInvalidKey
	case errors.Is(err, ErrorCannotDeleteSelf):
		return CodeCannotDeleteSelf
	case errors.Is(err, ErrorCannotDeleteAdmin):
		return CodeCannotDeleteAdmin
	case errors.Is(err, ErrorForbidden):
		return CodeNotAuthorizedUpdate
	case errors.Is(err, ErrorValidation):
		return CodeValidation
	case errors.Is(err, ErrorTooLarge):
		return CodeTooLarge
	default:
		return CodeInternal
	}
}
