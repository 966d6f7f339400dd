package tensor

import (
	"slices"

	"github.com/hupe1980/densealert/internal/core"
)

// Entry is one distinct coordinate tuple and its accumulated weight.
//
// An entry is stored once per mode, in the bucket of its coordinate along
// that mode. slots records where: slots[m] is the entry's index inside
// Bucket(m, Coords[m]). Swap-with-last removal patches it on every move.
type Entry struct {
	Coords []core.AttVal
	Weight core.Weight

	// Pending marks an entry whose incident degrees have not yet been
	// released by the current peeling run. It is false between operations.
	Pending bool

	slots []int
}

// Slot returns the entry's index inside its bucket along mode.
func (e *Entry) Slot(mode core.Mode) int { return e.slots[mode] }

// Matches reports whether the entry is stored under exactly these coordinates.
func (e *Entry) Matches(coords []core.AttVal) bool {
	return slices.Equal(e.Coords, coords)
}

func newEntry(coords []core.AttVal, w core.Weight) *Entry {
	return &Entry{
		Coords: slices.Clone(coords),
		Weight: w,
		slots:  make([]int, len(coords)),
	}
}
