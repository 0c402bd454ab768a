package domain

import "errors"

var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("entity not found")
	// ErrInvalidInput indicates that the provided input data is invalid.
	ErrInvalidInput = errors.New("invalid input data")
	// ErrInvalidTransition indicates a lifecycle operation attempted from a state that does not allow it.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyExists indicates a uniqueness violation on a natural key.
	ErrAlreadyExists = errors.New("entity already exists")
	// ErrUnavailable indicates the backing data store cannot be reached.
	ErrUnavailable = errors.New("backing store unavailable")
)
