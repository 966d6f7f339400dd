package queue

import "time"

type deadlineItem[T any] struct {
	at    time.Time
	seq   uint64
	value T
}

// DeadlineQueue is a min-heap of values keyed by an expiry time.
// Values with equal expiry pop in push order.
type DeadlineQueue[T any] struct {
	items []deadlineItem[T]
	seq   uint64
}

// NewDeadline creates an empty queue with room for capacity values.
func NewDeadline[T any](capacity int) *DeadlineQueue[T] {
	return &DeadlineQueue[T]{items: make([]deadlineItem[T], 0, capacity)}
}

// Len returns the number of queued values.
func (q *DeadlineQueue[T]) Len() int { return len(q.items) }

// Push queues v to expire at at.
func (q *DeadlineQueue[T]) Push(at time.Time, v T) {
	q.items = append(q.items, deadlineItem[T]{at: at, seq: q.seq, value: v})
	q.seq++
	q.siftUp(len(q.items) - 1)
}

// Peek returns the earliest expiry and its value without removing it.
func (q *DeadlineQueue[T]) Peek() (time.Time, T, bool) {
	if len(q.items) == 0 {
		var zero T
		return time.Time{}, zero, false
	}
	return q.items[0].at, q.items[0].value, true
}

// Pop removes and returns the earliest expiry and its value.
func (q *DeadlineQueue[T]) Pop() (time.Time, T, bool) {
	n := len(q.items)
	if n == 0 {
		var zero T
		return time.Time{}, zero, false
	}
	root := q.items[0]
	q.items[0] = q.items[n-1]
	q.items[n-1] = deadlineItem[T]{}
	q.items = q.items[:n-1]
	if len(q.items) > 0 {
		q.siftDown(0)
	}
	return root.at, root.value, true
}

func (q *DeadlineQueue[T]) less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.at.Equal(b.at) {
		return a.seq < b.seq
	}
	return a.at.Before(b.at)
}

func (q *DeadlineQueue[T]) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.less(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *DeadlineQueue[T]) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && q.less(r, l) {
			best = r
		}
		if !q.less(best, i) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
