package accessor

import (
	"errors"
	"fmt"
)

var (
	// ErrArityMismatch is returned when an untyped key has a different
	// length than the key schema
	ErrArityMismatch = errors.New("key arity mismatch")

	// ErrNilEntity is returned when an operation needs an instance but got nil
	ErrNilEntity = errors.New("nil entity")
)

func arityError(want, got int) error {
	return fmt.Errorf("%w: want %d values, got %d", ErrArityMismatch, want, got)
}

// IsArityMismatch returns true if the error is ErrArityMismatch
func IsArityMismatch(err error) bool {
	return errors.Is(err, ErrArityMismatch)
}
