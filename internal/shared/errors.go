package shared

import "errors"

var (
	// ErrValidation indicates malformed input rejected before any mutation.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the referenced farmer, invoice or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a concurrent run holds the critical section; callers retry.
	ErrConflict = errors.New("conflict")
	// ErrInvariant indicates corrupted settlement state, surfaced as a fatal internal error.
	ErrInvariant = errors.New("invariant violation")
)
