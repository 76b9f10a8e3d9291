package services

import (
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	maxEmailLength = 100
	maxNameLength  = 50
)

// SignupInput carries a new account's details.
type SignupInput struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

// Validate will validate the payload
func (in SignupInput) Validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, maxEmailLength), is.Email),
		validation.Field(&in.Password, validation.Required),
		validation.Field(&in.FirstName, validation.Length(0, maxNameLength)),
		validation.Field(&in.LastName, validation.Length(0, maxNameLength)),
	))
}

// UserUpdate is a partial profile update; nil fields are left unchanged.
type UserUpdate struct {
	FirstName *string
	LastName  *string
}

// Validate will validate the payload
func (in UserUpdate) Validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.Length(0, maxNameLength)),
		validation.Field(&in.LastName, validation.Length(0, maxNameLength)),
	))
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", common.ErrorValidation, err)
}
