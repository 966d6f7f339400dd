package engine

import (
	"math"

	"github.com/hupe1980/densealert/internal/core"
	"github.com/hupe1980/densealert/internal/order"
	"github.com/hupe1980/densealert/internal/tensor"
)

// Delete subtracts w from the tuple at coords, removing it once its weight
// reaches zero. It returns, per mode, whether the coordinate's attribute
// value left the tensor. The reported density can rise when the re-peel
// exposes a denser suffix.
func (e *Engine) Delete(coords []core.AttVal, w core.Weight) ([]bool, error) {
	if err := e.validate(coords, w); err != nil {
		return nil, err
	}
	if w == 0 {
		return make([]bool, e.order), nil
	}
	if e.store.Len() == 0 {
		return nil, ErrEmpty
	}
	for m, a := range coords {
		if int(a) >= e.capacity[m] {
			return nil, ErrNotFound
		}
	}

	removed, changes, ok := e.store.Remove(coords, w)
	if !ok {
		return nil, ErrNotFound
	}
	e.view.Apply(coords, changes)
	e.dirty = false

	retired := make([]bool, e.order)
	anyRetired := false
	for m, c := range changes {
		if c.Kind == tensor.Retired {
			retired[m] = true
			anyRetired = true
		}
	}

	curMin := core.Weight(math.MaxInt64)
	for m, a := range coords {
		e.cores[m] = e.seq.CoreOf(m, a)
		curMin = min(curMin, e.cores[m])
	}
	minC, maxC := curMin+1, curMin+1
	for m := range coords {
		if e.cores[m] == curMin && !retired[m] {
			minC = min(minC, curMin+1-removed)
		}
	}

	inBlock := e.block != nil && e.block.ContainsAll(coords)
	if e.block != nil {
		if inBlock {
			e.block.mass -= removed
		}
		for m, a := range coords {
			if retired[m] && e.block.remove(m, a) {
				e.dirty = true
			}
		}
		if e.block.count == 0 {
			e.toWhole()
		}
	} else if anyRetired {
		e.dirty = true
	}
	maintained := inBlock && e.block != nil

	e.cps.Update(func(k core.Weight, cp order.Checkpoint) order.Checkpoint {
		if k <= curMin {
			cp.Mass -= removed
		}
		for m := range coords {
			if retired[m] && e.cores[m] >= k {
				cp.Count--
			}
		}
		return cp
	})
	for m, a := range coords {
		if retired[m] {
			e.seq.Excise(e.seq.NodeOf(m, a), e.cps)
		}
	}

	if e.store.Len() == 0 {
		e.seq.Clear()
		e.cps.Clear()
		e.block = nil
		e.changed = true
		return retired, nil
	}

	t := newTracker(e.Density())
	start := minC
	if maintained {
		start = min(t.floor, minC)
	}

	col, mass, count := core.NoNode, e.store.Mass(), e.store.AttVals()
	if _, cp, ok := e.cps.NearestAtOrAbove(start); ok {
		col, mass, count = cp.Node, cp.Mass, cp.Count
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

	// Ties are accepted past this point: a suffix as dense as the current
	// block keeps the block from falling back to the whole tensor.
	t.policy = policyOff
	if maintained {
		t.policy = policyInclusive
	}

	if minC < maxC {
		found, bound := false, core.Weight(0)
		for id := col; id != core.NoNode; id = e.seq.Next(id) {
			nd := e.seq.At(id)
			if !found && coords[nd.Mode] == nd.AttVal {
				found, bound = true, nd.Core
			} else if found && nd.RemoveMass >= bound {
				break
			}
			e.mark(nd.Mode, nd.AttVal, statusWide)
		}

		seeds := e.seeds[:0]
		for m, a := range coords {
			if !retired[m] && e.status[m][a] == statusWide {
				seeds = append(seeds, ref{mode: m, a: a})
			}
		}
		e.seeds = seeds
		e.compose(seeds, minC, maxC)
		e.resetStatus()

		col = e.seq.Head()
		if head != core.NoNode {
			col = e.seq.Next(head)
		}

		var cur core.Weight
		cur, col, mass, count = e.repeel(head, col, mass, count, t)
		for col != core.NoNode && cur < maxC-1 {
			nd := e.seq.At(col)
			if nd.RemoveMass > cur {
				cur = e.refresh(col, nd.RemoveMass, cur, mass, count)
				if nd.RemoveMass >= maxC-1 {
					break
				}
			}
			t.offer(col, nd.RemoveMass, mass, count)
			mass -= nd.RemoveMass
			count--
			col = e.seq.Next(col)
		}
		if col == core.NoNode {
			e.cps.InvalidateRange(cur+1, math.MaxInt64)
		}
	}

	if maintained {
		for ; col != core.NoNode; col = e.seq.Next(col) {
			nd := e.seq.At(col)
			t.offer(col, nd.RemoveMass, mass, count)
			mass -= nd.RemoveMass
			count--
		}
	}

	e.finish(t)
	return retired, nil
}
