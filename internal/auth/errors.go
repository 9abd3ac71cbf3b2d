package auth

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateAccount   = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbiddenRole      = errors.New("role requires an admin caller")
	ErrUserNotFound       = errors.New("user not found")
)

// FieldError is a validation failure on one input field. It matches
// ErrValidation under errors.Is.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &FieldError{Field: field, Message: message}
}
