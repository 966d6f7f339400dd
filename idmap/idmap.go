// Package idmap maps external identifiers to dense per-mode indices.
//
// The detector engine addresses attribute values by small integers so its
// per-mode arrays stay compact. A Matcher hands out those integers, one
// namespace per mode, and recycles the indices of released identifiers
// before minting new ones.
package idmap

import "github.com/hupe1980/densealert/internal/core"

type space[K comparable] struct {
	index map[K]core.AttVal
	keys  []K
	live  []bool
	free  []core.AttVal // FIFO; head is free[0]
}

// Matcher maps keys of type K to dense indices, independently per mode.
// It is not safe for concurrent use.
type Matcher[K comparable] struct {
	modes []space[K]
}

// New creates a matcher for order modes.
func New[K comparable](order int) *Matcher[K] {
	m := &Matcher[K]{modes: make([]space[K], order)}
	for i := range m.modes {
		m.modes[i].index = make(map[K]core.AttVal)
	}
	return m
}

// Order returns the number of modes.
func (m *Matcher[K]) Order() int { return len(m.modes) }

// Index returns the index of k in mode, allocating one on first sight.
// The boolean reports whether the index was newly allocated.
func (m *Matcher[K]) Index(mode core.Mode, k K) (core.AttVal, bool) {
	s := &m.modes[mode]
	if idx, ok := s.index[k]; ok {
		return idx, false
	}

	var idx core.AttVal
	if len(s.free) > 0 {
		idx = s.free[0]
		s.free = s.free[1:]
		s.keys[idx] = k
		s.live[idx] = true
	} else {
		idx = core.AttVal(len(s.keys))
		s.keys = append(s.keys, k)
		s.live = append(s.live, true)
	}
	s.index[k] = idx
	return idx, true
}

// Lookup returns the index of k in mode without allocating.
func (m *Matcher[K]) Lookup(mode core.Mode, k K) (core.AttVal, bool) {
	idx, ok := m.modes[mode].index[k]
	return idx, ok
}

// Key returns the key holding idx in mode.
func (m *Matcher[K]) Key(mode core.Mode, idx core.AttVal) (K, bool) {
	s := &m.modes[mode]
	if int(idx) >= len(s.keys) || !s.live[idx] {
		var zero K
		return zero, false
	}
	return s.keys[idx], true
}

// Release frees idx in mode for reuse. It reports whether idx was live.
func (m *Matcher[K]) Release(mode core.Mode, idx core.AttVal) bool {
	s := &m.modes[mode]
	if int(idx) >= len(s.keys) || !s.live[idx] {
		return false
	}
	delete(s.index, s.keys[idx])
	var zero K
	s.keys[idx] = zero
	s.live[idx] = false
	s.free = append(s.free, idx)
	return true
}

// Len returns the number of live keys in mode.
func (m *Matcher[K]) Len(mode core.Mode) int { return len(m.modes[mode].index) }

// Capacity returns the number of indices ever minted in mode.
// Released indices count until they are reused.
func (m *Matcher[K]) Capacity(mode core.Mode) int { return len(m.modes[mode].keys) }

// Keys returns the live keys of mode in index order.
func (m *Matcher[K]) Keys(mode core.Mode) []K {
	s := &m.modes[mode]
	out := make([]K, 0, len(s.index))
	for i, k := range s.keys {
		if s.live[i] {
			out = append(out, k)
		}
	}
	return out
}
