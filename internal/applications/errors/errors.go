package errors

import "errors"

var (
	ErrNotFound = errors.New("application not found")

	ErrInvalidID = errors.New("invalid application ID format")

	// ErrLockHeld means another request currently holds the advisory
	// lock for an allocation; callers should retry shortly.
	ErrLockHeld = errors.New("allocation lock is held by another request")
)
