// Package queue provides the heaps used by peeling and by time-windowed expiry.
package queue

import "github.com/hupe1980/densealert/internal/core"

const absent = -1

// IndexedMinHeap is a fixed-capacity binary min-heap over attribute value ids.
//
// Besides the heap array it keeps an id->position array (absent = -1) and an
// id->priority array, so Contains and Priority are O(1) and Update is
// O(log n). Capacity must cover every id pushed; Grow extends it.
type IndexedMinHeap struct {
	items    []core.AttVal
	position []int
	priority []core.Weight
}

// NewIndexedMin creates an empty heap for ids in [0, capacity).
func NewIndexedMin(capacity int) *IndexedMinHeap {
	h := &IndexedMinHeap{
		items:    make([]core.AttVal, 0, capacity),
		position: make([]int, capacity),
		priority: make([]core.Weight, capacity),
	}
	for i := range h.position {
		h.position[i] = absent
	}
	return h
}

// Len returns the number of ids in the heap.
func (h *IndexedMinHeap) Len() int { return len(h.items) }

// Capacity returns the exclusive upper bound of accepted ids.
func (h *IndexedMinHeap) Capacity() int { return len(h.position) }

// Grow extends the id range to capacity.
func (h *IndexedMinHeap) Grow(capacity int) {
	n := len(h.position)
	if capacity <= n {
		return
	}
	position := make([]int, capacity)
	copy(position, h.position)
	for i := n; i < capacity; i++ {
		position[i] = absent
	}
	h.position = position

	priority := make([]core.Weight, capacity)
	copy(priority, h.priority)
	h.priority = priority
}

// Contains reports whether id is in the heap.
func (h *IndexedMinHeap) Contains(id core.AttVal) bool {
	return h.position[id] != absent
}

// Priority returns the priority of id. It is only meaningful while
// Contains(id) holds.
func (h *IndexedMinHeap) Priority(id core.AttVal) core.Weight {
	return h.priority[id]
}

// Push inserts id with priority p. id must not be in the heap.
func (h *IndexedMinHeap) Push(id core.AttVal, p core.Weight) {
	h.priority[id] = p
	h.position[id] = len(h.items)
	h.items = append(h.items, id)
	h.siftUp(len(h.items) - 1)
}

// Peek returns the id with the smallest priority without removing it.
func (h *IndexedMinHeap) Peek() (core.AttVal, core.Weight, bool) {
	if len(h.items) == 0 {
		return 0, 0, false
	}
	id := h.items[0]
	return id, h.priority[id], true
}

// Pop removes and returns the id with the smallest priority.
func (h *IndexedMinHeap) Pop() (core.AttVal, core.Weight, bool) {
	n := len(h.items)
	if n == 0 {
		return 0, 0, false
	}
	root := h.items[0]
	last := h.items[n-1]
	h.items = h.items[:n-1]
	h.position[root] = absent
	if n-1 > 0 {
		h.items[0] = last
		h.position[last] = 0
		h.siftDown(0)
	}
	return root, h.priority[root], true
}

// Update sets the priority of an id already in the heap.
func (h *IndexedMinHeap) Update(id core.AttVal, p core.Weight) {
	h.priority[id] = p
	i := h.position[id]
	if !h.siftDown(i) {
		h.siftUp(i)
	}
}

// Reset empties the heap, keeping its capacity.
func (h *IndexedMinHeap) Reset() {
	for _, id := range h.items {
		h.position[id] = absent
	}
	h.items = h.items[:0]
}

func (h *IndexedMinHeap) less(i, j int) bool {
	return h.priority[h.items[i]] < h.priority[h.items[j]]
}

func (h *IndexedMinHeap) swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.position[h.items[i]] = i
	h.position[h.items[j]] = j
}

func (h *IndexedMinHeap) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !h.less(i, p) {
			return
		}
		h.swap(i, p)
		i = p
	}
}

// siftDown reports whether the item moved.
func (h *IndexedMinHeap) siftDown(i int) bool {
	n := len(h.items)
	moved := false
	for {
		l := 2*i + 1
		if l >= n {
			return moved
		}
		best := l
		if r := l + 1; r < n && h.less(r, l) {
			best = r
		}
		if !h.less(best, i) {
			return moved
		}
		h.swap(i, best)
		i = best
		moved = true
	}
}
