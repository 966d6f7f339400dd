package densealert

import (
	"errors"
	"fmt"

	"github.com/hupe1980/densealert/internal/engine"
)

var (
	// ErrNotFound is returned when deleting a tuple that is not stored.
	ErrNotFound = errors.New("not found")

	// ErrEmpty is returned when deleting from an empty detector.
	ErrEmpty = errors.New("detector is empty")

	// ErrInvalidOrder is returned when the order is not positive.
	ErrInvalidOrder = errors.New("order must be positive")

	// ErrNegativeWeight is returned for tuples with a weight below zero.
	ErrNegativeWeight = errors.New("weight must not be negative")
)

// ErrOrderMismatch indicates a tuple whose arity differs from the order.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrOrderMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrOrderMismatch) Error() string {
	return fmt.Sprintf("order mismatch: expected %d keys, got %d", e.Expected, e.Actual)
}

func (e *ErrOrderMismatch) Unwrap() error { return e.cause }

// ErrUnknownID indicates a delete naming an id that was never inserted
// in the given mode, or that has since left the detector.
type ErrUnknownID struct {
	Mode int
	ID   string
}

func (e *ErrUnknownID) Error() string {
	return fmt.Sprintf("unknown id %q in mode %d", e.ID, e.Mode)
}

// Is makes an unknown id match ErrNotFound.
func (e *ErrUnknownID) Is(target error) bool { return target == ErrNotFound }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, engine.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, engine.ErrEmpty):
		return fmt.Errorf("%w: %w", ErrEmpty, err)
	case errors.Is(err, engine.ErrInvalidOrder):
		return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	case errors.Is(err, engine.ErrNegativeWeight):
		return fmt.Errorf("%w: %w", ErrNegativeWeight, err)
	}

	return err
}
