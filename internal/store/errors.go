package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrPersistence is returned when the underlying storage could not be
	// read or written. The in-memory state is left at the last successfully
	// persisted snapshot whenever this error is returned from a mutation.
	ErrPersistence = errors.New("persistence failure")

	// ErrDuplicate is returned when a backend rejects a write because it
	// would break a uniqueness constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when a backend rejects an entity that
	// violates a schema constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrVocabularyNotFound indicates that the requested vocabulary record does not exist.
	ErrVocabularyNotFound = fmt.Errorf("%w: vocabulary record", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPersistenceError checks if the error originates from the storage layer.
func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "vocabulary")
	Operation string // The operation that failed (e.g., "load", "save")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// NewPersistenceError wraps a backend failure so that it matches ErrPersistence
// while keeping the original cause reachable through errors.Is/As.
func NewPersistenceError(entity, operation string, err error) *StoreError {
	return NewStoreError(entity, operation, ErrPersistence.Error(), fmt.Errorf("%w: %w", ErrPersistence, err))
}
