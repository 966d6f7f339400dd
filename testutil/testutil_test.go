package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(4711)
	t1 := rng.Tuple(3, 100)

	rng.Reset()
	t2 := rng.Tuple(3, 100)

	assert.Equal(t, t1, t2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestRNG_Weight(t *testing.T) {
	rng := NewRNG(1)
	for range 100 {
		w := rng.Weight(3)
		assert.GreaterOrEqual(t, w, int64(1))
		assert.LessOrEqual(t, w, int64(3))
	}
}

func TestRNG_ZipfTupleSkews(t *testing.T) {
	rng := NewRNG(42)
	counts := make(map[uint32]int)
	for range 2000 {
		c := rng.ZipfTuple(1, 50, 1.5)
		require.Len(t, c, 1)
		require.Less(t, c[0], uint32(50))
		counts[c[0]]++
	}
	assert.Greater(t, counts[0], counts[10])
}

func TestRNG_StreamDeletesOnlyLiveTuples(t *testing.T) {
	rng := NewRNG(7)
	ops := rng.Stream(StreamConfig{Order: 2, Domain: 4, MaxWeight: 3, DeleteRate: 0.5, Ops: 500})
	require.Len(t, ops, 500)

	live := make(map[string]int64)
	for _, op := range ops {
		k := Key(op.Coords)
		if op.Delete {
			require.Positive(t, live[k], "delete of dead tuple %s", k)
			live[k] -= op.Weight
			if live[k] <= 0 {
				delete(live, k)
			}
			continue
		}
		live[k] += op.Weight
	}
}

func TestGrid(t *testing.T) {
	g := Grid(2, 3, 10)
	require.Len(t, g, 9)
	assert.Equal(t, []uint32{10, 10}, g[0])
	assert.Equal(t, []uint32{10, 11}, g[1])
	assert.Equal(t, []uint32{12, 12}, g[8])
}

func TestKeyAndStrings(t *testing.T) {
	assert.Equal(t, "1,22,3", Key([]uint32{1, 22, 3}))
	assert.Equal(t, []string{"1", "22"}, Strings([]uint32{1, 22}))
}
