package engine

import (
	"github.com/hupe1980/densealert/internal/core"
	"github.com/hupe1980/densealert/internal/order"
	"github.com/hupe1980/densealert/internal/tensor"
)

// batch rebuilds π from scratch by greedy peeling of the whole store and
// selects the densest suffix.
func (e *Engine) batch() {
	e.store.Range(func(en *tensor.Entry) bool {
		en.Pending = true
		return true
	})

	n := 0
	for m := range e.order {
		for a := range e.store.Capacity(m) {
			if d := e.store.Degree(m, core.AttVal(a)); d > 0 {
				e.heaps[m].Push(core.AttVal(a), d)
				n++
			}
		}
	}

	mass, remaining := e.store.Mass(), n
	bestDensity := float64(mass) / float64(n)
	best, bestMass := core.NoNode, core.Weight(0)

	e.seq.Clear()
	e.cps.Clear()
	cur := core.Weight(-1)

	for remaining > 0 {
		m, a, rm := e.popMin()
		id := e.seq.PushBack(m, a, rm, max(cur, rm))
		if rm > cur {
			cur = rm
			e.cps.RecordIfAbsent(cur, order.Checkpoint{Node: id, Mass: mass, Count: remaining})
		}
		if d := float64(mass) / float64(remaining); d > bestDensity {
			bestDensity, best, bestMass = d, id, mass
		}
		mass -= rm
		remaining--
		e.release(e.store.Bucket(m, a), m)
	}

	e.block = nil
	if best != core.NoNode {
		e.block = e.collect(best, bestMass)
	}
	e.changed = true
}

// popMin removes the attribute value with the smallest priority across all
// mode heaps. Ties go to the lowest mode.
func (e *Engine) popMin() (core.Mode, core.AttVal, core.Weight) {
	mode, best := -1, core.Weight(0)
	for m, h := range e.heaps {
		if _, p, ok := h.Peek(); ok && (mode < 0 || p < best) {
			mode, best = m, p
		}
	}
	if mode < 0 {
		panic("densealert: peel from empty heaps")
	}
	a, p, _ := e.heaps[mode].Pop()
	return mode, a, p
}

// minPriority returns the smallest priority across all mode heaps.
func (e *Engine) minPriority() core.Weight {
	found, best := false, core.Weight(0)
	for _, h := range e.heaps {
		if _, p, ok := h.Peek(); ok && (!found || p < best) {
			found, best = true, p
		}
	}
	return best
}

// release accounts for peeling a along mode: every pending tuple of its
// bucket stops contributing to the other coordinates still in a heap.
func (e *Engine) release(bucket []*tensor.Entry, mode core.Mode) {
	for _, en := range bucket {
		if !en.Pending {
			continue
		}
		for d, a := range en.Coords {
			if d == mode {
				continue
			}
			if h := e.heaps[d]; h.Contains(a) {
				h.Update(a, h.Priority(a)-en.Weight)
			}
		}
		en.Pending = false
	}
}
