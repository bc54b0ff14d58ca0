package store

import "errors"

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists means a unique constraint was violated.
	ErrAlreadyExists = errors.New("record already exists")
)
