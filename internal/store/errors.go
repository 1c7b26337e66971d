package store

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the store, credential and pki
// packages wraps exactly one of these so callers can match with errors.Is.
var (
	// ErrCodec indicates malformed PEM, UTF-8 or a corrupt stored payload.
	ErrCodec = errors.New("codec error")

	// ErrTimeFormat indicates a timestamp that is not strict RFC3339.
	ErrTimeFormat = errors.New("invalid timestamp format")

	// ErrValidation indicates bad parameters or configuration.
	ErrValidation = errors.New("validation failed")

	// ErrStoreInvariantViolation is returned when a write would replace an
	// existing key. It always signals a bug, never a transient condition.
	ErrStoreInvariantViolation = errors.New("store invariant violation: key already exists")

	// ErrStoreIO indicates the backend could not be read or written.
	ErrStoreIO = errors.New("store i/o error")

	// ErrDeferred marks errors replayed by a FailFast store.
	ErrDeferred = errors.New("store unavailable")
)

// DeferredError carries the error captured when the store could not be
// constructed. The same value is returned from every call.
type DeferredError struct {
	Err error
}

func (e *DeferredError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDeferred, e.Err)
}

func (e *DeferredError) Unwrap() error {
	return e.Err
}

func (e *DeferredError) Is(target error) bool {
	return target == ErrDeferred
}
