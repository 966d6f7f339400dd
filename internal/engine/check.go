package engine

import (
	"fmt"
	"math"

	"github.com/hupe1980/densealert/internal/core"
	"github.com/hupe1980/densealert/internal/tensor"
)

// Check recomputes every derived quantity of e by brute force and reports
// the first inconsistency. It is quadratic and meant for tests.
//
// Checked: π covers exactly the live attribute values, removed masses and
// core numbers match the order, the checkpoint index holds exactly the
// attained core numbers with exact suffix masses and counts, the block's
// mass and count are exact, each position was a minimum-degree choice,
// and no reordering scratch state is left behind.
func Check(e *Engine) error {
	type key = ref

	var positions []core.NodeID
	prev := core.NoNode
	for id := e.seq.Head(); id != core.NoNode; id = e.seq.Next(id) {
		if !e.seq.Live(id) {
			return fmt.Errorf("position %d is not live", id)
		}
		if e.seq.Prev(id) != prev {
			return fmt.Errorf("position %d has broken back link", id)
		}
		positions = append(positions, id)
		prev = id
	}
	if e.seq.Tail() != prev {
		return fmt.Errorf("tail %d, want %d", e.seq.Tail(), prev)
	}
	if e.seq.Len() != len(positions) {
		return fmt.Errorf("sequence length %d, walked %d", e.seq.Len(), len(positions))
	}

	pos := make(map[key]int, len(positions))
	for p, id := range positions {
		nd := e.seq.At(id)
		k := key{mode: nd.Mode, a: nd.AttVal}
		if _, dup := pos[k]; dup {
			return fmt.Errorf("attribute value %v appears twice", k)
		}
		pos[k] = p
		if e.seq.NodeOf(nd.Mode, nd.AttVal) != id {
			return fmt.Errorf("node index of %v is stale", k)
		}
		if e.seq.CoreOf(nd.Mode, nd.AttVal) != nd.Core {
			return fmt.Errorf("core snapshot of %v is stale", k)
		}
	}

	live := 0
	for m := range e.order {
		for a := range e.store.Capacity(m) {
			if len(e.store.Bucket(m, core.AttVal(a))) == 0 {
				continue
			}
			live++
			if _, ok := pos[key{mode: m, a: core.AttVal(a)}]; !ok {
				return fmt.Errorf("live attribute value (%d,%d) missing from order", m, a)
			}
		}
	}
	if live != len(positions) || live != e.store.AttVals() {
		return fmt.Errorf("%d live attribute values, %d positions, store counts %d", live, len(positions), e.store.AttVals())
	}

	var entries []*tensor.Entry
	var mass core.Weight
	e.store.Range(func(en *tensor.Entry) bool {
		entries = append(entries, en)
		mass += en.Weight
		return true
	})
	if mass != e.store.Mass() || len(entries) != e.store.Len() {
		return fmt.Errorf("store totals drifted")
	}

	first := func(en *tensor.Entry) int {
		p := math.MaxInt
		for m, a := range en.Coords {
			p = min(p, pos[key{mode: m, a: a}])
		}
		return p
	}

	removeMass := make([]core.Weight, len(positions))
	for _, en := range entries {
		if en.Pending {
			return fmt.Errorf("tuple %v left pending", en.Coords)
		}
		removeMass[first(en)] += en.Weight
	}
	suffix := make([]core.Weight, len(positions)+1)
	for p := len(positions) - 1; p >= 0; p-- {
		suffix[p] = suffix[p+1] + removeMass[p]
	}

	attained := make(map[core.Weight]int)
	cur := core.Weight(-1)
	for p, id := range positions {
		nd := e.seq.At(id)
		if nd.RemoveMass != removeMass[p] {
			return fmt.Errorf("position %d removed mass %d, want %d", p, nd.RemoveMass, removeMass[p])
		}
		cur = max(cur, nd.RemoveMass)
		if nd.Core != cur {
			return fmt.Errorf("position %d core %d, want %d", p, nd.Core, cur)
		}
		if _, ok := attained[cur]; !ok {
			attained[cur] = p
		}
	}

	keys := e.cps.Keys()
	if len(keys) != len(attained) {
		return fmt.Errorf("checkpoint keys %v, want %d attained core numbers", keys, len(attained))
	}
	for _, k := range keys {
		p, ok := attained[k]
		if !ok {
			return fmt.Errorf("checkpoint %d was never attained", k)
		}
		cp, _ := e.cps.Get(k)
		if cp.Node != positions[p] {
			return fmt.Errorf("checkpoint %d points at %d, want %d", k, cp.Node, positions[p])
		}
		if cp.Mass != suffix[p] {
			return fmt.Errorf("checkpoint %d mass %d, want %d", k, cp.Mass, suffix[p])
		}
		if cp.Count != len(positions)-p {
			return fmt.Errorf("checkpoint %d count %d, want %d", k, cp.Count, len(positions)-p)
		}
	}

	if b := e.block; b != nil {
		n := 0
		for m := range e.order {
			for _, a := range b.Members(m) {
				if _, ok := pos[key{mode: m, a: a}]; !ok {
					return fmt.Errorf("block member (%d,%d) is not live", m, a)
				}
				n++
			}
		}
		if n != b.count {
			return fmt.Errorf("block count %d, want %d", b.count, n)
		}
		var bm core.Weight
		for _, en := range entries {
			if b.ContainsAll(en.Coords) {
				bm += en.Weight
			}
		}
		if bm != b.mass {
			return fmt.Errorf("block mass %d, want %d", b.mass, bm)
		}
		if e.Density() < e.wholeDensity() {
			return fmt.Errorf("block density %g below whole tensor %g", e.Density(), e.wholeDensity())
		}
	}

	if err := checkGreedy(e, positions, pos, entries, first); err != nil {
		return err
	}

	for m := range e.order {
		if e.heaps[m].Len() != 0 {
			return fmt.Errorf("heap of mode %d not drained", m)
		}
		for a, s := range e.status[m] {
			if s != statusNone {
				return fmt.Errorf("status of (%d,%d) not reset", m, a)
			}
		}
		if len(e.narrow[m]) != 0 || len(e.wide[m]) != 0 || e.queued[m].Len() != 0 {
			return fmt.Errorf("reorder scratch of mode %d not reset", m)
		}
	}
	if !e.view.Empty() {
		return fmt.Errorf("view not empty")
	}
	return nil
}

// checkGreedy replays π and verifies each position had minimum degree in
// the tensor left by its predecessors.
func checkGreedy(e *Engine, positions []core.NodeID, pos map[ref]int, entries []*tensor.Entry, first func(*tensor.Entry) int) error {
	degree := make(map[ref]core.Weight, len(pos))
	for _, en := range entries {
		for m, a := range en.Coords {
			degree[ref{mode: m, a: a}] += en.Weight
		}
	}
	byFirst := make([][]*tensor.Entry, len(positions))
	for _, en := range entries {
		p := first(en)
		byFirst[p] = append(byFirst[p], en)
	}

	alive := make(map[ref]bool, len(pos))
	for k := range pos {
		alive[k] = true
	}
	for p, id := range positions {
		nd := e.seq.At(id)
		k := ref{mode: nd.Mode, a: nd.AttVal}
		lowest := core.Weight(math.MaxInt64)
		for j := range alive {
			lowest = min(lowest, degree[j])
		}
		if degree[k] != lowest {
			return fmt.Errorf("position %d peeled degree %d, minimum was %d", p, degree[k], lowest)
		}
		delete(alive, k)
		for _, en := range byFirst[p] {
			for m, a := range en.Coords {
				if m != nd.Mode {
					degree[ref{mode: m, a: a}] -= en.Weight
				}
			}
		}
	}
	return nil
}
