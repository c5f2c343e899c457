package errors

import "errors"

var (
	ErrNotFound = errors.New("event not found")

	ErrInvalidID = errors.New("invalid event ID format")

	ErrAllocationNotFound = errors.New("event facility allocation not found")

	ErrInvalidAllocationID = errors.New("invalid allocation ID format")
)
