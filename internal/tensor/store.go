// Package tensor holds the weighted tuple storage used by the density engine.
//
// Store keeps every tuple, grouped per (mode, attribute value) bucket, with
// aggregate mass and degree bookkeeping. View mirrors the bucket layout for
// the handful of tuples a single reordering touches and is emptied again as
// the reordering peels them.
package tensor

import "github.com/hupe1980/densealert/internal/core"

const initialBucketCapacity = 4

// ChangeKind describes what a mutation did to one mode's bucket.
type ChangeKind uint8

const (
	// Unchanged means the bucket kept its backing array.
	Unchanged ChangeKind = iota
	// Resized means the bucket's backing array grew or shrank.
	Resized
	// Retired means the bucket became empty and its attribute value is gone.
	Retired
)

// Change is the per-mode outcome of an insert or remove.
type Change struct {
	Kind     ChangeKind
	Capacity int
}

// Store holds all tuples of an N-mode tensor.
//
// Lookup of an existing tuple scans the smallest of its N candidate buckets.
// That bounds the cost by the sparsest coordinate instead of keeping a full
// tuple index next to the buckets.
type Store struct {
	order   int
	mass    core.Weight
	entries int
	attVals int

	buckets [][][]*Entry
	degree  [][]core.Weight

	changes []Change
}

// NewStore creates a store for order modes, each with room for capacity
// attribute values before growing.
func NewStore(order, capacity int) *Store {
	s := &Store{
		order:   order,
		buckets: make([][][]*Entry, order),
		degree:  make([][]core.Weight, order),
		changes: make([]Change, order),
	}
	for m := range order {
		s.buckets[m] = make([][]*Entry, capacity)
		s.degree[m] = make([]core.Weight, capacity)
	}
	return s
}

// Order returns the number of modes.
func (s *Store) Order() int { return s.order }

// Mass returns the total weight of all tuples.
func (s *Store) Mass() core.Weight { return s.mass }

// Len returns the number of distinct tuples.
func (s *Store) Len() int { return s.entries }

// AttVals returns the number of live attribute values across all modes.
func (s *Store) AttVals() int { return s.attVals }

// Capacity returns the attribute value capacity of mode.
func (s *Store) Capacity(mode core.Mode) int { return len(s.degree[mode]) }

// Grow extends mode to hold capacity attribute values. Existing ids keep
// their buckets.
func (s *Store) Grow(mode core.Mode, capacity int) {
	if capacity <= len(s.degree[mode]) {
		return
	}
	buckets := make([][]*Entry, capacity)
	copy(buckets, s.buckets[mode])
	s.buckets[mode] = buckets

	degree := make([]core.Weight, capacity)
	copy(degree, s.degree[mode])
	s.degree[mode] = degree
}

// Degree returns the summed weight of tuples incident to a along mode.
func (s *Store) Degree(mode core.Mode, a core.AttVal) core.Weight {
	return s.degree[mode][a]
}

// Bucket returns the tuples whose coordinate along mode is a.
// The slice is owned by the store and only valid until the next mutation.
func (s *Store) Bucket(mode core.Mode, a core.AttVal) []*Entry {
	return s.buckets[mode][a]
}

// Find returns the stored entry for coords, or nil.
func (s *Store) Find(coords []core.AttVal) *Entry {
	mode := 0
	for m := 1; m < s.order; m++ {
		if len(s.buckets[m][coords[m]]) < len(s.buckets[mode][coords[mode]]) {
			mode = m
		}
	}
	bucket := s.buckets[mode][coords[mode]]
	for i := len(bucket) - 1; i >= 0; i-- {
		if bucket[i].Matches(coords) {
			return bucket[i]
		}
	}
	return nil
}

// Insert adds w to the tuple at coords, creating it if needed.
//
// The returned changes are indexed by mode and only valid until the next
// mutation. Coordinates must fit the current capacities.
func (s *Store) Insert(coords []core.AttVal, w core.Weight) (*Entry, bool, []Change) {
	clear(s.changes)

	if e := s.Find(coords); e != nil {
		e.Weight += w
		s.mass += w
		for m, a := range coords {
			s.degree[m][a] += w
		}
		return e, false, s.changes
	}

	e := newEntry(coords, w)
	for m, a := range coords {
		bucket := s.buckets[m][a]
		if len(bucket) == 0 {
			s.attVals++
			if bucket == nil {
				bucket = make([]*Entry, 0, initialBucketCapacity)
			}
		}
		before := cap(bucket)
		e.slots[m] = len(bucket)
		bucket = append(bucket, e)
		if cap(bucket) != before {
			s.changes[m] = Change{Kind: Resized, Capacity: cap(bucket)}
		}
		s.buckets[m][a] = bucket
		s.degree[m][a] += w
	}
	s.mass += w
	s.entries++
	return e, true, s.changes
}

// Remove subtracts up to w from the tuple at coords.
//
// A tuple whose weight does not exceed w is removed from every bucket and
// only its stored weight is accounted. It returns the weight actually
// removed, the per-mode changes and false when no such tuple exists.
func (s *Store) Remove(coords []core.AttVal, w core.Weight) (core.Weight, []Change, bool) {
	clear(s.changes)

	e := s.Find(coords)
	if e == nil {
		return 0, s.changes, false
	}

	if e.Weight > w {
		e.Weight -= w
		s.mass -= w
		for m, a := range coords {
			s.degree[m][a] -= w
		}
		return w, s.changes, true
	}

	removed := e.Weight
	for m, a := range coords {
		s.degree[m][a] -= removed
		s.changes[m] = s.unlink(m, a, e)
	}
	s.mass -= removed
	s.entries--
	return removed, s.changes, true
}

func (s *Store) unlink(mode core.Mode, a core.AttVal, e *Entry) Change {
	bucket := s.buckets[mode][a]
	slot := e.slots[mode]
	last := len(bucket) - 1

	moved := bucket[last]
	bucket[slot] = moved
	moved.slots[mode] = slot
	bucket[last] = nil
	bucket = bucket[:last]

	switch {
	case len(bucket) == 0:
		s.buckets[mode][a] = nil
		s.attVals--
		return Change{Kind: Retired}
	case len(bucket) >= initialBucketCapacity && len(bucket) < cap(bucket)/4:
		shrunk := make([]*Entry, len(bucket), cap(bucket)/2)
		copy(shrunk, bucket)
		s.buckets[mode][a] = shrunk
		return Change{Kind: Resized, Capacity: cap(shrunk)}
	default:
		s.buckets[mode][a] = bucket
		return Change{}
	}
}

// Range calls fn for every stored tuple until fn returns false.
func (s *Store) Range(fn func(e *Entry) bool) {
	if s.order == 0 {
		return
	}
	for _, bucket := range s.buckets[0] {
		for _, e := range bucket {
			if !fn(e) {
				return
			}
		}
	}
}
