package repositories

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means the row changed since it was read.
	ErrConflict      = errors.New("record was modified concurrently")
	ErrAlreadyExists = errors.New("record already exists")
)
