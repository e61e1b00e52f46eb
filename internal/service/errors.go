package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation marks input rejected by a business rule.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail is returned when registering an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrForbidden indicates the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is the parent of every missing-resource error.
	ErrNotFound = errors.New("not found")
	// ErrHomeworkNotFound indicates the requested homework does not exist.
	ErrHomeworkNotFound = fmt.Errorf("homework %w", ErrNotFound)
	// ErrStudentHomeworkNotFound indicates the per-student homework record does not exist.
	ErrStudentHomeworkNotFound = fmt.Errorf("student homework %w", ErrNotFound)
	// ErrAssistantUnavailable wraps any failure of the AI assistant.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)

// IsValidationError reports whether err came from struct validation or a business rule.
func IsValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors) || errors.Is(err, ErrValidation)
}

func validationError(message string) error {
	return fmt.Errorf("%w: %s", ErrValidation, message)
}
