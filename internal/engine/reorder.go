package engine

import (
	"github.com/hupe1980/densealert/internal/core"
	"github.com/hupe1980/densealert/internal/tensor"
)

func (e *Engine) mark(mode core.Mode, a core.AttVal, status uint8) {
	e.status[mode][a] = status
	e.wide[mode] = append(e.wide[mode], a)
}

func (e *Engine) resetStatus() {
	for m := range e.order {
		for _, a := range e.wide[m] {
			e.status[m][a] = statusNone
		}
		e.wide[m] = e.wide[m][:0]
	}
}

// compose gathers the sub-tensor to re-peel. Starting from seeds it walks
// tuple buckets breadth first and pulls in every attribute value whose
// core number lies in [minC, maxC) and that was marked wide. Pulled
// attribute values are excised from π and queued for the re-peel; tuples
// reaching outside the window only contribute degree.
func (e *Engine) compose(seeds []ref, minC, maxC core.Weight) {
	queue := e.bfs[:0]
	for _, s := range seeds {
		e.queued[s.mode].Mark(s.a)
		queue = append(queue, s)
	}

	for i := 0; i < len(queue); i++ {
		s := queue[i]
		if id := e.seq.NodeOf(s.mode, s.a); id != core.NoNode {
			e.seq.Excise(id, e.cps)
		}
		e.narrow[s.mode] = append(e.narrow[s.mode], s.a)

		for _, en := range e.store.Bucket(s.mode, s.a) {
			if en.Pending || e.excluded(en, s.mode, minC) {
				continue
			}

			single := true
			for d, a := range en.Coords {
				e.flags[d] = false
				if d == s.mode {
					continue
				}
				if e.queued[d].Marked(a) {
					single = false
					e.flags[d] = true
					continue
				}
				c := e.seq.CoreOf(d, a)
				if c >= minC && c < maxC && e.status[d][a] >= statusWide {
					single = false
					e.flags[d] = true
					e.queued[d].Mark(a)
					queue = append(queue, ref{mode: d, a: a})
				}
			}

			if single {
				en.Pending = false
				e.view.AddDegree(en, s.mode)
			} else {
				en.Pending = true
				e.flags[s.mode] = true
				e.view.Insert(en, e.flags)
			}
		}
	}

	for m := range e.order {
		e.queued[m].Reset()
	}
	e.bfs = queue[:0]
}

// excluded reports whether a tuple of the bucket of (mode, ·) has a
// coordinate peeled before the window and therefore no longer counts.
func (e *Engine) excluded(en *tensor.Entry, mode core.Mode, minC core.Weight) bool {
	for d, a := range en.Coords {
		if d == mode || e.queued[d].Marked(a) {
			continue
		}
		c := e.seq.CoreOf(d, a)
		if c < minC || (c == minC && e.status[d][a] == statusBefore) {
			return true
		}
	}
	return false
}

// repeel peels the queued attribute values of the view and splices them
// back into π after head, interleaved with the untouched positions from
// col onward. It returns the running core number, the first untouched
// position not yet passed, and the suffix mass and count starting there.
func (e *Engine) repeel(head, col core.NodeID, mass core.Weight, count int, t *tracker) (core.Weight, core.NodeID, core.Weight, int) {
	total := 0
	for m := range e.order {
		for _, a := range e.narrow[m] {
			e.heaps[m].Push(a, e.view.Degree(m, a))
		}
		total += len(e.narrow[m])
		e.narrow[m] = e.narrow[m][:0]
	}

	cur := core.Weight(-1)
	if head != core.NoNode {
		cur = e.seq.At(head).Core
	}

	for ; total > 0; total-- {
		lowest := e.minPriority()
		for col != core.NoNode {
			nd := e.seq.At(col)
			if lowest <= nd.RemoveMass {
				break
			}
			cur = e.refresh(col, nd.RemoveMass, cur, mass, count)
			t.offer(col, nd.RemoveMass, mass, count)
			mass -= nd.RemoveMass
			count--
			head, col = col, e.seq.Next(col)
		}

		m, a, rm := e.popMin()
		id := e.seq.InsertAfter(head, m, a, rm, max(cur, rm))
		cur = e.refresh(id, rm, cur, mass, count)
		t.offer(id, rm, mass, count)
		mass -= rm
		count--
		head = id

		e.release(e.view.Bucket(m, a), m)
		e.view.Clear(m, a)
	}
	return cur, col, mass, count
}
