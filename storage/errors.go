package storage

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInactiveRecord indicates an operation targeted a superseded record.
	ErrInactiveRecord = errors.New("record is inactive")

	// ErrInvalidTopK indicates a non-positive result limit.
	ErrInvalidTopK = errors.New("topK must be positive")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store is closed")
)
