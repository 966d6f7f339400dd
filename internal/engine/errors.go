package engine

import "errors"

var (
	// ErrNotFound is returned when deleting a tuple that is not stored.
	ErrNotFound = errors.New("tuple not found")

	// ErrEmpty is returned when deleting from an empty tensor.
	ErrEmpty = errors.New("tensor is empty")

	// ErrOrderMismatch is returned when a tuple's arity differs from the order.
	ErrOrderMismatch = errors.New("tuple order mismatch")

	// ErrNegativeWeight is returned for weights below zero.
	ErrNegativeWeight = errors.New("negative weight")

	// ErrInvalidOrder is returned when creating an engine of order < 1.
	ErrInvalidOrder = errors.New("order must be positive")
)
