package checkin

import (
	"errors"
	"fmt"
)

// Validation errors: bad input shape, the caller should re-prompt.
var (
	ErrInvalidEvent    = errors.New("invalid event id")
	ErrEventNotFound   = errors.New("event not found")
	ErrUnauthenticated = errors.New("authenticated user required")
)

// ErrStorage matches every *StorageError via errors.Is.
var ErrStorage = errors.New("storage error")

// StorageError wraps a persistence failure. It is surfaced unchanged and never retried here.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
