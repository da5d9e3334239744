package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyWord is returned when a candidate or record has a blank word.
	ErrEmptyWord = fmt.Errorf("%w: word cannot be blank", ErrValidation)

	// ErrInvalidDifficulty is returned for a difficulty outside easy|medium|hard.
	ErrInvalidDifficulty = fmt.Errorf("%w: invalid difficulty", ErrValidation)

	// ErrInvalidSource is returned for a source outside conversation|manual.
	ErrInvalidSource = fmt.Errorf("%w: invalid source", ErrValidation)

	// ErrEmptyID is returned when a record has no identifier.
	ErrEmptyID = fmt.Errorf("%w: id cannot be empty", ErrValidation)

	// ErrNegativeCount is returned when a review counter is below zero.
	ErrNegativeCount = fmt.Errorf("%w: review counters cannot be negative", ErrValidation)

	// ErrInvalidLevel is returned when a record level is outside the interval table.
	ErrInvalidLevel = fmt.Errorf("%w: level out of range", ErrValidation)

	// ErrMissingNextReview is returned when a record has no next review time.
	ErrMissingNextReview = fmt.Errorf("%w: next review time must be set", ErrValidation)

	// ErrImmutableField is returned when an update tries to change an immutable field.
	ErrImmutableField = fmt.Errorf("%w: immutable field changed", ErrValidation)
)

// IsValidationError reports whether err is, or wraps, ErrValidation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}
