// Package testutil provides testing utilities for densealert.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG and generators for synthetic
// weighted tuple streams.
//
// # Random Streams
//
//	rng := testutil.NewRNG(seed)
//	ops := rng.Stream(testutil.StreamConfig{Order: 3, Domain: 5, MaxWeight: 2, DeleteRate: 0.4, Ops: 150})
//
// Deletions in a stream always target a live tuple, so replaying it
// against a detector never fails with a not-found error.
//
// # Planted Blocks
//
//	tuples := testutil.Grid(2, 3, 0) // 0..2 x 0..2
package testutil
