package engine

import (
	"math"

	"github.com/hupe1980/densealert/internal/core"
	"github.com/hupe1980/densealert/internal/order"
)

// Insert adds w to the tuple at coords and repairs π inside the window of
// core numbers the insertion can affect.
func (e *Engine) Insert(coords []core.AttVal, w core.Weight) error {
	if err := e.validate(coords, w); err != nil {
		return err
	}
	if w == 0 {
		return nil
	}
	e.ensureCapacity(coords)

	if e.store.Len() == 0 {
		_, _, changes := e.store.Insert(coords, w)
		e.view.Apply(coords, changes)
		e.batch()
		return nil
	}

	e.dirty = false
	if e.block == nil && e.hasAbsent(coords) {
		e.materialize()
	}

	newAtt := 0
	minC, maxC := core.Weight(math.MaxInt64), core.Weight(math.MaxInt64)
	for m, a := range coords {
		lo, hi := w, w
		if e.seq.NodeOf(m, a) == core.NoNode {
			newAtt++
		} else {
			lo = e.seq.CoreOf(m, a)
			hi = lo + w
		}
		minC, maxC = min(minC, lo), min(maxC, hi)
	}

	entry, _, changes := e.store.Insert(coords, w)
	e.view.Apply(coords, changes)
	if e.block != nil && e.block.ContainsAll(coords) {
		e.block.mass += w
	}

	t := newTracker(e.Density())
	if d := e.wholeDensity(); d > t.density {
		t.useWhole(d)
	}

	e.cps.Update(func(k core.Weight, cp order.Checkpoint) order.Checkpoint {
		if k <= minC {
			cp.Mass += w
			cp.Count += newAtt
		}
		return cp
	})

	col, mass, count := e.seq.Head(), e.store.Mass(), e.store.AttVals()
	if k, cp, ok := e.cps.NearestAtOrAbove(min(minC, t.floor)); ok {
		col, mass, count = cp.Node, cp.Mass, cp.Count
		if k > minC {
			mass += w
			count += newAtt
		}
	}

	for col != core.NoNode {
		nd := e.seq.At(col)
		if nd.Core >= minC {
			break
		}
		t.offer(col, nd.RemoveMass, mass, count)
		mass -= nd.RemoveMass
		count--
		col = e.seq.Next(col)
	}
	head := e.seq.Tail()
	if col != core.NoNode {
		head = e.seq.Prev(col)
	}

	if minC < maxC {
		// Positions before the first coordinate of the tuple keep their
		// place; the ones after it with a removed mass below the raised
		// bound may move.
		var bound core.Weight
		for {
			if col == core.NoNode {
				panic("densealert: inserted tuple missing from reorder window")
			}
			nd := e.seq.At(col)
			if coords[nd.Mode] == nd.AttVal {
				head = e.seq.Prev(col)
				bound = nd.RemoveMass + w
				break
			}
			e.mark(nd.Mode, nd.AttVal, statusBefore)
			t.offer(col, nd.RemoveMass, mass, count)
			mass -= nd.RemoveMass
			count--
			col = e.seq.Next(col)
		}

		seed := e.seq.At(col)
		for id := col; id != core.NoNode; id = e.seq.Next(id) {
			nd := e.seq.At(id)
			if nd.RemoveMass >= bound {
				break
			}
			e.mark(nd.Mode, nd.AttVal, statusWide)
		}
		for m, a := range coords {
			if e.seq.NodeOf(m, a) == core.NoNode {
				e.seq.SetCore(m, a, minC)
				e.mark(m, a, statusWide)
			}
		}

		entry.Pending = false
		e.seeds = append(e.seeds[:0], ref{mode: seed.Mode, a: seed.AttVal})
		e.compose(e.seeds, minC, maxC)
		e.resetStatus()

		col = e.seq.Head()
		if head != core.NoNode {
			col = e.seq.Next(head)
		}
	} else {
		entry.Pending = true
		for m, a := range coords {
			e.flags[m] = false
			if e.seq.NodeOf(m, a) == core.NoNode {
				e.narrow[m] = append(e.narrow[m], a)
				e.flags[m] = true
			}
		}
		e.view.Insert(entry, e.flags)
	}

	cur, col, mass, count := e.repeel(head, col, mass, count, t)

	for col != core.NoNode && cur < maxC {
		nd := e.seq.At(col)
		cur = e.refresh(col, nd.RemoveMass, cur, mass, count)
		t.offer(col, nd.RemoveMass, mass, count)
		mass -= nd.RemoveMass
		count--
		col = e.seq.Next(col)
	}

	e.finish(t)
	return nil
}

func (e *Engine) hasAbsent(coords []core.AttVal) bool {
	for m, a := range coords {
		if e.seq.NodeOf(m, a) == core.NoNode {
			return true
		}
	}
	return false
}
