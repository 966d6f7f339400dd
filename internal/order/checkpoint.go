package order

import (
	"slices"

	"github.com/hupe1980/densealert/internal/core"
)

// Checkpoint caches where a core number first occurs in π together with
// the mass and attribute value count of the suffix starting there.
type Checkpoint struct {
	Node  core.NodeID
	Mass  core.Weight
	Count int
}

// Checkpoints maps core numbers to checkpoints.
//
// Only core numbers actually attained in π get a key. Core numbers are
// non-decreasing along π, so the first node whose core is at least k is the
// checkpoint of the smallest attained key >= k, and NearestAtOrAbove answers
// lookups for skipped values exactly as a dense index would.
//
// Keys are kept sorted next to the map so range invalidation and
// NearestAtOrAbove are binary searches.
type Checkpoints struct {
	keys []core.Weight
	at   map[core.Weight]Checkpoint
}

// NewCheckpoints creates an empty index.
func NewCheckpoints() *Checkpoints {
	return &Checkpoints{at: make(map[core.Weight]Checkpoint)}
}

// Len returns the number of checkpoints.
func (c *Checkpoints) Len() int { return len(c.keys) }

// Keys returns the checkpointed core numbers in ascending order.
func (c *Checkpoints) Keys() []core.Weight { return slices.Clone(c.keys) }

// Get returns the checkpoint of core number k.
func (c *Checkpoints) Get(k core.Weight) (Checkpoint, bool) {
	cp, ok := c.at[k]
	return cp, ok
}

// Put records cp under k, replacing any previous checkpoint.
func (c *Checkpoints) Put(k core.Weight, cp Checkpoint) {
	if _, ok := c.at[k]; !ok {
		i, _ := slices.BinarySearch(c.keys, k)
		c.keys = slices.Insert(c.keys, i, k)
	}
	c.at[k] = cp
}

// RecordIfAbsent records cp under k unless k is already checkpointed.
func (c *Checkpoints) RecordIfAbsent(k core.Weight, cp Checkpoint) bool {
	if _, ok := c.at[k]; ok {
		return false
	}
	c.Put(k, cp)
	return true
}

// Delete drops the checkpoint of k.
func (c *Checkpoints) Delete(k core.Weight) {
	if _, ok := c.at[k]; !ok {
		return
	}
	i, _ := slices.BinarySearch(c.keys, k)
	c.keys = slices.Delete(c.keys, i, i+1)
	delete(c.at, k)
}

// InvalidateRange drops every checkpoint with lo <= key <= hi.
func (c *Checkpoints) InvalidateRange(lo, hi core.Weight) {
	if lo > hi {
		return
	}
	i, _ := slices.BinarySearch(c.keys, lo)
	j := i
	for j < len(c.keys) && c.keys[j] <= hi {
		delete(c.at, c.keys[j])
		j++
	}
	c.keys = slices.Delete(c.keys, i, j)
}

// NearestAtOrAbove returns the checkpoint with the smallest key >= k.
func (c *Checkpoints) NearestAtOrAbove(k core.Weight) (core.Weight, Checkpoint, bool) {
	i, _ := slices.BinarySearch(c.keys, k)
	if i == len(c.keys) {
		return 0, Checkpoint{}, false
	}
	key := c.keys[i]
	return key, c.at[key], true
}

// Update replaces every checkpoint with fn's result.
func (c *Checkpoints) Update(fn func(k core.Weight, cp Checkpoint) Checkpoint) {
	for _, k := range c.keys {
		c.at[k] = fn(k, c.at[k])
	}
}

// Clear drops every checkpoint.
func (c *Checkpoints) Clear() {
	c.keys = c.keys[:0]
	clear(c.at)
}
