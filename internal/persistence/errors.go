package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrConflict is returned when a write would violate a uniqueness rule.
	ErrConflict = errors.New("persistence: conflict")
	// ErrInternal is returned for every other storage failure.
	ErrInternal = errors.New("persistence: internal storage error")
)

// StorageError hides the underlying driver failure from callers while keeping
// it available for logging.
type StorageError struct {
	Op    string
	cause error
}

// NewStorageError wraps cause as an opaque internal error for operation op.
func NewStorageError(op string, cause error) *StorageError {
	return &StorageError{Op: op, cause: cause}
}

// Error never includes the cause text.
func (e *StorageError) Error() string {
	if e.Op == "" {
		return ErrInternal.Error()
	}
	return ErrInternal.Error() + " during " + e.Op
}

// Unwrap exposes only ErrInternal so errors.Is works without leaking the cause.
func (e *StorageError) Unwrap() error {
	return ErrInternal
}

// Cause returns the driver level failure.
func (e *StorageError) Cause() error {
	return e.cause
}
