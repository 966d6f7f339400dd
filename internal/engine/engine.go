package engine

import (
	"math"

	"github.com/hupe1980/densealert/internal/core"
	"github.com/hupe1980/densealert/internal/order"
	"github.com/hupe1980/densealert/internal/queue"
	"github.com/hupe1980/densealert/internal/tensor"
	"github.com/hupe1980/densealert/internal/visited"
)

// Reordering status of an attribute value inside the current window.
const (
	statusNone uint8 = iota
	statusBefore
	statusWide
)

type ref struct {
	mode core.Mode
	a    core.AttVal
}

// Engine maintains the greedy peeling order of a weighted tensor and the
// densest suffix of that order under tuple insertions and deletions.
type Engine struct {
	order    int
	capacity []int

	store *tensor.Store
	view  *tensor.View
	heaps []*queue.IndexedMinHeap
	seq   *order.Sequence
	cps   *order.Checkpoints

	status [][]uint8
	queued []*visited.Set
	wide   [][]core.AttVal
	narrow [][]core.AttVal
	flags  []bool
	cores  []core.Weight
	bfs    []ref
	seeds  []ref

	// block is nil while the whole tensor is the maintained block.
	block   *Block
	changed bool
	dirty   bool
}

// New creates an empty engine for tuples with the given number of modes.
// capacity is the initial number of attribute values per mode; it grows
// on demand.
func New(modes, capacity int) (*Engine, error) {
	if modes < 1 {
		return nil, ErrInvalidOrder
	}
	if capacity < 1 {
		capacity = 1
	}

	e := &Engine{
		order:    modes,
		capacity: make([]int, modes),
		store:    tensor.NewStore(modes, capacity),
		view:     tensor.NewView(modes, capacity),
		heaps:    make([]*queue.IndexedMinHeap, modes),
		seq:      order.NewSequence(modes, capacity),
		cps:      order.NewCheckpoints(),
		status:   make([][]uint8, modes),
		queued:   make([]*visited.Set, modes),
		wide:     make([][]core.AttVal, modes),
		narrow:   make([][]core.AttVal, modes),
		flags:    make([]bool, modes),
		cores:    make([]core.Weight, modes),
	}
	for m := range modes {
		e.capacity[m] = capacity
		e.heaps[m] = queue.NewIndexedMin(capacity)
		e.status[m] = make([]uint8, capacity)
		e.queued[m] = visited.New(capacity)
	}
	return e, nil
}

// Order returns the number of modes.
func (e *Engine) Order() int { return e.order }

// Mass returns the total weight of the tensor.
func (e *Engine) Mass() core.Weight { return e.store.Mass() }

// Len returns the number of distinct stored tuples.
func (e *Engine) Len() int { return e.store.Len() }

// AttVals returns the number of live attribute values across all modes.
func (e *Engine) AttVals() int { return e.store.AttVals() }

// Density returns the density of the maintained block, or 0 when empty.
func (e *Engine) Density() float64 {
	if e.block != nil {
		return e.block.Density()
	}
	return e.wholeDensity()
}

// Block returns the maintained block, or nil when it is the whole tensor.
// The block is owned by the engine and valid until the next mutation.
func (e *Engine) Block() *Block { return e.block }

// BlockChanged reports whether the block's member set changed since the
// last ClearChanged.
func (e *Engine) BlockChanged() bool { return e.changed }

// ClearChanged resets the change flag.
func (e *Engine) ClearChanged() { e.changed = false }

// Live returns every attribute value of π grouped per mode, in peeling order.
func (e *Engine) Live() [][]core.AttVal {
	out := make([][]core.AttVal, e.order)
	for id := e.seq.Head(); id != core.NoNode; id = e.seq.Next(id) {
		nd := e.seq.At(id)
		out[nd.Mode] = append(out[nd.Mode], nd.AttVal)
	}
	return out
}

func (e *Engine) wholeDensity() float64 {
	n := e.store.AttVals()
	if n == 0 {
		return 0
	}
	return float64(e.store.Mass()) / float64(n)
}

func (e *Engine) validate(coords []core.AttVal, w core.Weight) error {
	if len(coords) != e.order {
		return ErrOrderMismatch
	}
	if w < 0 {
		return ErrNegativeWeight
	}
	return nil
}

func (e *Engine) ensureCapacity(coords []core.AttVal) {
	for m, a := range coords {
		if int(a) < e.capacity[m] {
			continue
		}
		c := core.Grow(e.capacity[m], a)
		e.capacity[m] = c
		e.store.Grow(m, c)
		e.view.Grow(m, c)
		e.heaps[m].Grow(c)
		e.seq.Grow(m, c)
		e.queued[m].EnsureCapacity(c)

		status := make([]uint8, c)
		copy(status, e.status[m])
		e.status[m] = status
	}
}

// collect builds the block formed by the suffix of π starting at id.
func (e *Engine) collect(id core.NodeID, mass core.Weight) *Block {
	b := newBlock(e.order)
	for ; id != core.NoNode; id = e.seq.Next(id) {
		nd := e.seq.At(id)
		b.add(nd.Mode, nd.AttVal)
	}
	b.mass = mass
	return b
}

// materialize turns the whole-tensor sentinel into an explicit block so
// that attribute values added later do not dilute it.
func (e *Engine) materialize() {
	e.block = e.collect(e.seq.Head(), e.store.Mass())
}

func (e *Engine) toWhole() {
	if e.block != nil {
		e.dirty = true
	}
	e.block = nil
}

func (e *Engine) finish(t *tracker) {
	switch {
	case t.whole:
		e.toWhole()
	case t.found:
		b := e.collect(t.node, t.mass)
		if !b.Equal(e.block) {
			e.dirty = true
		}
		e.block = b
	}
	if e.block != nil && e.wholeDensity() > e.block.Density() {
		e.toWhole()
	}
	if e.dirty {
		e.changed = true
	}
}

// refresh keeps the checkpoint index current while a scan passes id with
// the running core number cur, and returns the new running core number.
func (e *Engine) refresh(id core.NodeID, removeMass, cur, mass core.Weight, count int) core.Weight {
	if removeMass <= cur {
		return cur
	}
	e.cps.InvalidateRange(cur+1, removeMass-1)
	e.cps.Put(removeMass, order.Checkpoint{Node: id, Mass: mass, Count: count})
	return removeMass
}

// policy selects how a tracker compares candidate suffixes.
type policy uint8

const (
	policyStrict policy = iota
	policyInclusive
	policyOff
)

// tracker follows the densest suffix seen during one mutation. Suffixes
// starting at a position whose removed mass is below ceil(density) cannot
// beat it and are skipped.
type tracker struct {
	policy  policy
	density float64
	floor   core.Weight

	found bool
	whole bool
	node  core.NodeID
	mass  core.Weight
}

func newTracker(density float64) *tracker {
	return &tracker{density: density, floor: ceil(density), node: core.NoNode}
}

func (t *tracker) useWhole(density float64) {
	t.density, t.floor = density, ceil(density)
	t.found, t.whole = true, true
}

func (t *tracker) offer(id core.NodeID, removeMass, mass core.Weight, count int) {
	if t.policy == policyOff || removeMass < t.floor || count <= 0 {
		return
	}
	d := float64(mass) / float64(count)
	if d > t.density || (t.policy == policyInclusive && d == t.density) {
		t.density, t.floor = d, ceil(d)
		t.found, t.whole = true, false
		t.node, t.mass = id, mass
	}
}

func ceil(d float64) core.Weight {
	return core.Weight(math.Ceil(d))
}
