package tensor

import "github.com/hupe1980/densealert/internal/core"

// View is the bounded sub-tensor a single reordering peels.
//
// Tuples are inserted only along the modes whose coordinates take part in
// the reordering; the other coordinates merely contribute to degree. Clear
// empties a bucket as soon as its attribute value is peeled, so a view is
// empty again once the reordering completes.
type View struct {
	order   int
	buckets [][][]*Entry
	degree  [][]core.Weight
}

// NewView creates an empty view with the same shape as a store.
func NewView(order, capacity int) *View {
	v := &View{
		order:   order,
		buckets: make([][][]*Entry, order),
		degree:  make([][]core.Weight, order),
	}
	for m := range order {
		v.buckets[m] = make([][]*Entry, capacity)
		v.degree[m] = make([]core.Weight, capacity)
	}
	return v
}

// Grow extends mode to hold capacity attribute values.
func (v *View) Grow(mode core.Mode, capacity int) {
	if capacity <= len(v.degree[mode]) {
		return
	}
	buckets := make([][]*Entry, capacity)
	copy(buckets, v.buckets[mode])
	v.buckets[mode] = buckets

	degree := make([]core.Weight, capacity)
	copy(degree, v.degree[mode])
	v.degree[mode] = degree
}

// Apply keeps the view's buckets in lockstep with a store mutation.
// Retired attribute values release their backing array; resized ones are
// re-allocated at the store's capacity if the view has used them before.
func (v *View) Apply(coords []core.AttVal, changes []Change) {
	for m, c := range changes {
		a := coords[m]
		switch c.Kind {
		case Retired:
			v.buckets[m][a] = nil
		case Resized:
			if b := v.buckets[m][a]; cap(b) > 0 && len(b) == 0 {
				v.buckets[m][a] = make([]*Entry, 0, c.Capacity)
			}
		}
	}
}

// Insert adds e to the bucket of every mode whose flag is set.
func (v *View) Insert(e *Entry, flags []bool) {
	for m, ok := range flags {
		if !ok {
			continue
		}
		a := e.Coords[m]
		v.buckets[m][a] = append(v.buckets[m][a], e)
		v.degree[m][a] += e.Weight
	}
}

// AddDegree accounts e's weight to its coordinate along mode without
// storing it.
func (v *View) AddDegree(e *Entry, mode core.Mode) {
	v.degree[mode][e.Coords[mode]] += e.Weight
}

// Degree returns the degree a has accumulated in the view.
func (v *View) Degree(mode core.Mode, a core.AttVal) core.Weight {
	return v.degree[mode][a]
}

// Bucket returns the tuples inserted along mode for a.
func (v *View) Bucket(mode core.Mode, a core.AttVal) []*Entry {
	return v.buckets[mode][a]
}

// Clear drops a's bucket and degree, keeping the backing array.
func (v *View) Clear(mode core.Mode, a core.AttVal) {
	b := v.buckets[mode][a]
	clear(b)
	v.buckets[mode][a] = b[:0]
	v.degree[mode][a] = 0
}

// Empty reports whether no bucket holds tuples or degree.
func (v *View) Empty() bool {
	for m := range v.order {
		for a, b := range v.buckets[m] {
			if len(b) > 0 || v.degree[m][a] != 0 {
				return false
			}
		}
	}
	return true
}
