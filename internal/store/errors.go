package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a media record with the same canonical URL).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// Entity-specific "not found" errors

	// ErrMediaNotFound indicates that the requested media record does not
	// exist in the store.
	ErrMediaNotFound = fmt.Errorf("%w: media", ErrNotFound)

	// ErrSummaryNotFound indicates that no summary of the requested type
	// exists for the media record.
	ErrSummaryNotFound = fmt.Errorf("%w: summary", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrMediaURLExists indicates that a media record with the given
	// canonical URL already exists.
	ErrMediaURLExists = fmt.Errorf("%w: media URL", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
