// Package visited marks attribute values touched by one breadth-first expansion.
package visited

import "github.com/hupe1980/densealert/internal/core"

// Set is a bitset over attribute value ids with a dirty list, so Reset costs
// O(marked) instead of O(capacity).
type Set struct {
	bits  []uint64
	dirty []core.AttVal
}

// New creates a set for ids in [0, capacity).
func New(capacity int) *Set {
	return &Set{
		bits:  make([]uint64, (capacity+63)/64),
		dirty: make([]core.AttVal, 0, 64),
	}
}

// Mark marks id and reports whether it was unmarked before.
func (s *Set) Mark(id core.AttVal) bool {
	word, mask := int(id>>6), uint64(1)<<(id&63)
	if word >= len(s.bits) {
		s.EnsureCapacity(int(id) + 1)
	}
	if s.bits[word]&mask != 0 {
		return false
	}
	s.bits[word] |= mask
	s.dirty = append(s.dirty, id)
	return true
}

// Marked reports whether id is marked.
func (s *Set) Marked(id core.AttVal) bool {
	word := int(id >> 6)
	if word >= len(s.bits) {
		return false
	}
	return s.bits[word]&(uint64(1)<<(id&63)) != 0
}

// Len returns the number of marked ids.
func (s *Set) Len() int { return len(s.dirty) }

// Reset unmarks every id marked since the last reset.
func (s *Set) Reset() {
	for _, id := range s.dirty {
		s.bits[id>>6] &^= uint64(1) << (id & 63)
	}
	s.dirty = s.dirty[:0]
}

// EnsureCapacity makes room for ids in [0, capacity).
func (s *Set) EnsureCapacity(capacity int) {
	words := (capacity + 63) / 64
	if words <= len(s.bits) {
		return
	}
	if doubled := 2 * len(s.bits); doubled > words {
		words = doubled
	}
	bits := make([]uint64, words)
	copy(bits, s.bits)
	s.bits = bits
}
