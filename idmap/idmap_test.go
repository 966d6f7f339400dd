package idmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/densealert/internal/core"
)

func TestMatcher_Index(t *testing.T) {
	m := New[string](2)
	assert.Equal(t, 2, m.Order())

	a, created := m.Index(0, "alice")
	assert.True(t, created)
	assert.Equal(t, core.AttVal(0), a)

	b, created := m.Index(0, "bob")
	assert.True(t, created)
	assert.Equal(t, core.AttVal(1), b)

	again, created := m.Index(0, "alice")
	assert.False(t, created)
	assert.Equal(t, a, again)

	// Modes are independent namespaces.
	x, created := m.Index(1, "alice")
	assert.True(t, created)
	assert.Equal(t, core.AttVal(0), x)

	assert.Equal(t, 2, m.Len(0))
	assert.Equal(t, 1, m.Len(1))
}

func TestMatcher_LookupDoesNotAllocate(t *testing.T) {
	m := New[string](1)
	_, ok := m.Lookup(0, "ghost")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len(0))
	assert.Equal(t, 0, m.Capacity(0))

	idx, _ := m.Index(0, "ghost")
	got, ok := m.Lookup(0, "ghost")
	require.True(t, ok)
	assert.Equal(t, idx, got)
}

func TestMatcher_ReleaseReusesFIFO(t *testing.T) {
	m := New[string](1)
	for _, k := range []string{"a", "b", "c", "d"} {
		m.Index(0, k)
	}

	require.True(t, m.Release(0, 2))
	require.True(t, m.Release(0, 0))
	assert.False(t, m.Release(0, 2), "double release")
	assert.False(t, m.Release(0, 99))

	_, ok := m.Lookup(0, "c")
	assert.False(t, ok)
	_, ok = m.Key(0, 2)
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len(0))

	e, _ := m.Index(0, "e")
	f, _ := m.Index(0, "f")
	g, _ := m.Index(0, "g")
	assert.Equal(t, core.AttVal(2), e)
	assert.Equal(t, core.AttVal(0), f)
	assert.Equal(t, core.AttVal(4), g)
	assert.Equal(t, 5, m.Capacity(0))

	k, ok := m.Key(0, 0)
	require.True(t, ok)
	assert.Equal(t, "f", k)
}

func TestMatcher_Keys(t *testing.T) {
	m := New[int](1)
	for _, k := range []int{30, 10, 20} {
		m.Index(0, k)
	}
	m.Release(0, 1)
	assert.Equal(t, []int{30, 20}, m.Keys(0))
}

func TestMatcher_CapacityBoundedByLive(t *testing.T) {
	m := New[int](1)
	for i := range 1000 {
		idx, _ := m.Index(0, i)
		if i >= 3 {
			prev, ok := m.Lookup(0, i-3)
			require.True(t, ok)
			require.True(t, m.Release(0, prev))
		}
		_ = idx
	}
	assert.Equal(t, 3, m.Len(0))
	assert.LessOrEqual(t, m.Capacity(0), 4)
}
