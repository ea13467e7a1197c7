// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity or input fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or empty.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidQuizType is returned when a quiz type is not one of the known kinds.
	ErrInvalidQuizType = fmt.Errorf("%w: invalid quiz type", ErrValidation)

	// ErrInvalidStrength is returned when a strength value falls outside 0..MaxStrength.
	ErrInvalidStrength = fmt.Errorf("%w: strength out of range", ErrValidation)

	// ErrInvalidCounters is returned when review counters are inconsistent.
	ErrInvalidCounters = fmt.Errorf("%w: inconsistent review counters", ErrValidation)

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// ValidationError describes a single invalid field.
// It matches ErrValidation via errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
