package core

// Mode indexes one axis of the tensor. Valid modes are 0..order-1.
type Mode = int

// AttVal is a dense, per-mode attribute value id.
// It is used for all hot-path structures (buckets, heaps, the peeling order).
// Invariant: ids are stable across capacity growth and never renumbered.
type AttVal = uint32

// Weight is a tuple weight and the unit of mass, degree and core number.
type Weight = int64

// NodeID addresses a slot in the peeling-order slab.
type NodeID = int32

// NoNode is the sentinel for "no node": absent from the order, or list end.
const NoNode NodeID = -1

// Grow returns the capacity to use when id does not fit into current.
// Capacities double, and jump straight to id+1 when doubling is not enough.
func Grow(current int, id AttVal) int {
	next := current * 2
	if next < int(id)+1 {
		next = int(id) + 1
	}
	return next
}
