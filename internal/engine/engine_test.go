package engine

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/densealert/internal/core"
	"github.com/hupe1980/densealert/testutil"
)

func newEngine(t *testing.T, order, capacity int) *Engine {
	t.Helper()
	e, err := New(order, capacity)
	require.NoError(t, err)
	return e
}

func insert(t *testing.T, e *Engine, coords []core.AttVal, w core.Weight) {
	t.Helper()
	require.NoError(t, e.Insert(coords, w))
	require.NoError(t, Check(e))
}

func remove(t *testing.T, e *Engine, coords []core.AttVal, w core.Weight) []bool {
	t.Helper()
	retired, err := e.Delete(coords, w)
	require.NoError(t, err)
	require.NoError(t, Check(e))
	return retired
}

// members returns the reported member set: the explicit block, or every
// live attribute value for the whole-tensor sentinel.
func members(e *Engine) [][]core.AttVal {
	if b := e.Block(); b != nil {
		out := make([][]core.AttVal, e.Order())
		for m := range out {
			out[m] = b.Members(m)
		}
		return out
	}
	out := e.Live()
	for m := range out {
		out[m] = sortedCopy(out[m])
	}
	return out
}

func sortedCopy(in []core.AttVal) []core.AttVal {
	out := append([]core.AttVal(nil), in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func plantedStream(blockFirst bool) [][]core.AttVal {
	block := testutil.Grid(2, 3, 0)
	var noise [][]core.AttVal
	for i := range core.AttVal(20) {
		noise = append(noise, []core.AttVal{10 + i, 40 + i})
	}
	if blockFirst {
		return append(block, noise...)
	}
	return append(noise, block...)
}

func TestNew_InvalidOrder(t *testing.T) {
	_, err := New(0, 4)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestEngine_Empty(t *testing.T) {
	e := newEngine(t, 2, 4)
	assert.Equal(t, 0.0, e.Density())
	assert.Nil(t, e.Block())
	assert.False(t, e.BlockChanged())
	assert.NoError(t, Check(e))
}

func TestEngine_SingleTuple(t *testing.T) {
	e := newEngine(t, 3, 4)
	insert(t, e, []core.AttVal{1, 2, 3}, 6)

	assert.InDelta(t, 2.0, e.Density(), 1e-12)
	assert.True(t, e.BlockChanged())
	assert.Equal(t, core.Weight(6), e.Mass())
	assert.Equal(t, 1, e.Len())
	assert.Equal(t, 3, e.AttVals())
}

func TestEngine_PlantedBlock(t *testing.T) {
	for _, blockFirst := range []bool{true, false} {
		t.Run(fmt.Sprintf("blockFirst=%v", blockFirst), func(t *testing.T) {
			e := newEngine(t, 2, 4)
			for _, c := range plantedStream(blockFirst) {
				insert(t, e, c, 1)
			}

			assert.InDelta(t, 1.5, e.Density(), 1e-12)
			require.NotNil(t, e.Block())
			assert.Equal(t, [][]core.AttVal{{0, 1, 2}, {0, 1, 2}}, members(e))
			assert.Equal(t, core.Weight(9), e.Block().Mass())
		})
	}
}

func TestEngine_PlantedBlockInterleaved(t *testing.T) {
	e := newEngine(t, 2, 4)
	block := testutil.Grid(2, 3, 0)
	for i := range core.AttVal(20) {
		insert(t, e, []core.AttVal{10 + i, 40 + i}, 1)
		if int(i) < len(block) {
			insert(t, e, block[i], 1)
		}
	}
	assert.InDelta(t, 1.5, e.Density(), 1e-12)
	assert.Equal(t, [][]core.AttVal{{0, 1, 2}, {0, 1, 2}}, members(e))
}

func TestEngine_DeletingPlantedBlockLowersDensity(t *testing.T) {
	want := []float64{4.0 / 3, 1.2, 1.2, 1.0, 0.8, 0.75, 2.0 / 3, 0.5, 0.5}

	for _, blockFirst := range []bool{true, false} {
		t.Run(fmt.Sprintf("blockFirst=%v", blockFirst), func(t *testing.T) {
			e := newEngine(t, 2, 4)
			for _, c := range plantedStream(blockFirst) {
				insert(t, e, c, 1)
			}

			prev := e.Density()
			for i, c := range testutil.Grid(2, 3, 0) {
				before := members(e)
				e.ClearChanged()
				remove(t, e, c, 1)

				assert.InDelta(t, want[i], e.Density(), 1e-9, "after deleting %v", c)
				assert.LessOrEqual(t, e.Density(), prev+1e-12)
				assert.Equal(t, !assert.ObjectsAreEqual(before, members(e)), e.BlockChanged(), "change flag after deleting %v", c)
				prev = e.Density()
			}
			assert.Equal(t, [][]core.AttVal{{10}, {40}}, members(e))
		})
	}
}

func TestEngine_PartialDeleteCanRaiseDensity(t *testing.T) {
	e := newEngine(t, 3, 4)
	insert(t, e, []core.AttVal{3, 6, 18}, 3)
	insert(t, e, []core.AttVal{14, 0, 0}, 3)
	insert(t, e, []core.AttVal{0, 16, 2}, 4)
	insert(t, e, []core.AttVal{14, 5, 1}, 4)
	insert(t, e, []core.AttVal{0, 10, 2}, 4)
	assert.InDelta(t, 12.0/7, e.Density(), 1e-12)
	assert.Equal(t, [][]core.AttVal{{0, 14}, {5, 10, 16}, {1, 2}}, members(e))

	e.ClearChanged()
	retired := remove(t, e, []core.AttVal{14, 5, 1}, 3)
	assert.Equal(t, []bool{false, false, false}, retired)

	// The lighter tuple drops out of the block and leaves a denser suffix.
	assert.InDelta(t, 2.0, e.Density(), 1e-12)
	assert.Equal(t, [][]core.AttVal{{0}, {10, 16}, {2}}, members(e))
	assert.True(t, e.BlockChanged())
}

func TestEngine_HeavyTuplePromotesBlock(t *testing.T) {
	e := newEngine(t, 3, 4)
	for i := range core.AttVal(30) {
		insert(t, e, []core.AttVal{10 + i%20, 10 + (i*7+3)%20, 10 + (i*11+1)%20}, 1)
	}
	e.ClearChanged()
	insert(t, e, []core.AttVal{5, 6, 7}, 1000)

	assert.InDelta(t, 1000.0/3, e.Density(), 1e-9)
	assert.True(t, e.BlockChanged())
	assert.Equal(t, [][]core.AttVal{{5}, {6}, {7}}, members(e))
}

func TestEngine_ZeroWeightIsNoop(t *testing.T) {
	e := newEngine(t, 2, 4)
	insert(t, e, []core.AttVal{0, 0}, 2)
	e.ClearChanged()

	require.NoError(t, e.Insert([]core.AttVal{1, 1}, 0))
	retired, err := e.Delete([]core.AttVal{0, 0}, 0)
	require.NoError(t, err)

	assert.Equal(t, []bool{false, false}, retired)
	assert.Equal(t, core.Weight(2), e.Mass())
	assert.Equal(t, 2, e.AttVals())
	assert.False(t, e.BlockChanged())
	assert.NoError(t, Check(e))
}

func TestEngine_Errors(t *testing.T) {
	e := newEngine(t, 2, 4)

	_, err := e.Delete([]core.AttVal{0, 0}, 1)
	assert.ErrorIs(t, err, ErrEmpty)

	assert.ErrorIs(t, e.Insert([]core.AttVal{0}, 1), ErrOrderMismatch)
	assert.ErrorIs(t, e.Insert([]core.AttVal{0, 0}, -1), ErrNegativeWeight)

	insert(t, e, []core.AttVal{0, 0}, 1)

	_, err = e.Delete([]core.AttVal{0, 1}, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.Delete([]core.AttVal{0, 1000}, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.Delete([]core.AttVal{0, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrOrderMismatch)

	assert.Equal(t, core.Weight(1), e.Mass())
	assert.NoError(t, Check(e))
}

func TestEngine_DeleteLastTupleEmpties(t *testing.T) {
	e := newEngine(t, 2, 4)
	insert(t, e, []core.AttVal{3, 1}, 4)
	e.ClearChanged()

	retired := remove(t, e, []core.AttVal{3, 1}, 10)

	assert.Equal(t, []bool{true, true}, retired)
	assert.Equal(t, 0.0, e.Density())
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, 0, e.AttVals())
	assert.True(t, e.BlockChanged())

	insert(t, e, []core.AttVal{0, 0}, 2)
	assert.InDelta(t, 1.0, e.Density(), 1e-12)
}

func TestEngine_PartialDelete(t *testing.T) {
	e := newEngine(t, 2, 4)
	insert(t, e, []core.AttVal{0, 0}, 5)
	insert(t, e, []core.AttVal{0, 1}, 1)

	retired := remove(t, e, []core.AttVal{0, 0}, 2)
	assert.Equal(t, []bool{false, false}, retired)
	assert.Equal(t, core.Weight(4), e.Mass())
	assert.Equal(t, 2, e.Len())

	retired = remove(t, e, []core.AttVal{0, 1}, 1)
	assert.Equal(t, []bool{false, true}, retired)
	assert.Equal(t, 2, e.AttVals())
}

func TestEngine_WeightsAccumulate(t *testing.T) {
	split := newEngine(t, 3, 4)
	whole := newEngine(t, 3, 4)
	rng := testutil.NewRNG(11)

	for range 40 {
		c := rng.Tuple(3, 5)
		w1, w2 := rng.Weight(3), rng.Weight(3)
		insert(t, split, c, w1)
		insert(t, split, c, w2)
		insert(t, whole, c, w1+w2)
	}

	assert.Equal(t, whole.Mass(), split.Mass())
	assert.Equal(t, whole.Len(), split.Len())
	assert.InDelta(t, whole.Density(), split.Density(), 1e-9)
}

func TestEngine_InsertDeleteRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(3)
	for round := range 50 {
		e := newEngine(t, 2, 2)
		for range 25 {
			insert(t, e, rng.Tuple(2, 6), rng.Weight(2))
		}
		mass, n, att := e.Mass(), e.Len(), e.AttVals()
		density := e.Density()
		before := members(e)

		c, w := rng.Tuple(2, 8), rng.Weight(4)
		insert(t, e, c, w)
		promoted := !assert.ObjectsAreEqual(before, members(e))
		remove(t, e, c, w)

		assert.Equal(t, mass, e.Mass(), "round %d", round)
		assert.Equal(t, n, e.Len(), "round %d", round)
		assert.Equal(t, att, e.AttVals(), "round %d", round)
		if !promoted {
			assert.InDelta(t, density, e.Density(), 1e-9, "round %d", round)
		}
	}
}

func TestEngine_GrowsCapacity(t *testing.T) {
	e := newEngine(t, 2, 1)
	insert(t, e, []core.AttVal{0, 0}, 1)
	insert(t, e, []core.AttVal{1000, 3}, 2)
	insert(t, e, []core.AttVal{1000, 70000}, 2)

	retired := remove(t, e, []core.AttVal{1000, 70000}, 2)
	assert.Equal(t, []bool{false, true}, retired)
}

func TestEngine_RetiringBoundaryLeavesNoDanglingCheckpoint(t *testing.T) {
	e := newEngine(t, 2, 4)
	insert(t, e, []core.AttVal{0, 0}, 1)
	insert(t, e, []core.AttVal{1, 1}, 3)
	insert(t, e, []core.AttVal{1, 2}, 3)
	insert(t, e, []core.AttVal{2, 2}, 7)

	for _, c := range [][]core.AttVal{{2, 2}, {0, 0}, {1, 1}} {
		remove(t, e, c, 100)
		for _, k := range e.cps.Keys() {
			cp, ok := e.cps.Get(k)
			require.True(t, ok)
			require.True(t, e.seq.Live(cp.Node), "checkpoint %d dangles", k)
		}
	}
	assert.InDelta(t, 1.5, e.Density(), 1e-12)
}

func TestEngine_RandomStreams(t *testing.T) {
	configs := []testutil.StreamConfig{
		{Order: 2, Domain: 5, MaxWeight: 3, DeleteRate: 0.3, Ops: 120},
		{Order: 3, Domain: 4, MaxWeight: 2, DeleteRate: 0.4, Ops: 120},
		{Order: 2, Domain: 12, MaxWeight: 1, DeleteRate: 0.1, Ops: 150},
		{Order: 3, Domain: 3, MaxWeight: 50, DeleteRate: 0.5, Ops: 120},
		{Order: 4, Domain: 3, MaxWeight: 5, DeleteRate: 0.45, Ops: 100},
		{Order: 1, Domain: 6, MaxWeight: 3, DeleteRate: 0.3, Ops: 80},
		{Order: 3, Domain: 20, MaxWeight: 4, DeleteRate: 0.3, Ops: 150, Skew: 1.2},
	}

	for seed := range int64(20) {
		for i, cfg := range configs {
			rng := testutil.NewRNG(seed*31 + int64(i))
			e := newEngine(t, cfg.Order, 2)

			for step, op := range rng.Stream(cfg) {
				before := members(e)
				e.ClearChanged()

				if op.Delete {
					_, err := e.Delete(op.Coords, op.Weight)
					require.NoError(t, err)
				} else {
					require.NoError(t, e.Insert(op.Coords, op.Weight))
				}
				require.NoError(t, Check(e), "seed %d config %d step %d", seed, i, step)

				if e.Len() > 0 && e.Block() != nil {
					require.Equal(t, !assert.ObjectsAreEqual(before, members(e)), e.BlockChanged(), "seed %d config %d step %d", seed, i, step)
				}
			}
		}
	}
}

func TestEngine_SparseCheckpointsResolveSkippedCores(t *testing.T) {
	rng := testutil.NewRNG(17)
	e := newEngine(t, 2, 4)
	cfg := testutil.StreamConfig{Order: 2, Domain: 6, MaxWeight: 9, DeleteRate: 0.3, Ops: 120}

	for step, op := range rng.Stream(cfg) {
		if op.Delete {
			_, err := e.Delete(op.Coords, op.Weight)
			require.NoError(t, err)
		} else {
			require.NoError(t, e.Insert(op.Coords, op.Weight))
		}

		var ids []core.NodeID
		for id := e.seq.Head(); id != core.NoNode; id = e.seq.Next(id) {
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}
		suffix := make([]core.Weight, len(ids)+1)
		for p := len(ids) - 1; p >= 0; p-- {
			suffix[p] = suffix[p+1] + e.seq.At(ids[p]).RemoveMass
		}

		top := e.seq.At(ids[len(ids)-1]).Core
		for k := core.Weight(0); k <= top; k++ {
			p := 0
			for e.seq.At(ids[p]).Core < k {
				p++
			}
			_, cp, ok := e.cps.NearestAtOrAbove(k)
			require.True(t, ok, "step %d core %d", step, k)
			assert.Equal(t, ids[p], cp.Node, "step %d core %d", step, k)
			assert.Equal(t, suffix[p], cp.Mass, "step %d core %d", step, k)
			assert.Equal(t, len(ids)-p, cp.Count, "step %d core %d", step, k)
		}
	}
}

func TestEngine_DensityAtLeastWhole(t *testing.T) {
	rng := testutil.NewRNG(99)
	e := newEngine(t, 3, 8)
	for range 200 {
		insert(t, e, rng.ZipfTuple(3, 30, 1.1), rng.Weight(5))
		whole := float64(e.Mass()) / float64(e.AttVals())
		assert.GreaterOrEqual(t, e.Density(), whole-1e-12)
		assert.False(t, math.IsNaN(e.Density()))
	}
}
