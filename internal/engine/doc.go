// Package engine implements incremental dense-block detection over a
// weighted tuple stream.
//
// The engine orchestrates:
//   - a greedy peeling order π with removed masses and core numbers
//   - a checkpoint index keyed by core number for O(log) resumption
//   - a bounded reordering window repaired by breadth-first composition
//   - exact tracking of the densest suffix of π (the maintained block)
//
// Insertions may increase the reported density, deletions may only keep
// or decrease it, and the whole tensor is always a lower bound.
//
// An Engine is single-threaded and not reentrant; callers serialize access.
package engine
