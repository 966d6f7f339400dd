package engine

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/densealert/internal/core"
)

// Block is an explicit maintained block: one bitmap of member attribute
// values per mode plus the block's mass and member count.
type Block struct {
	members []*roaring.Bitmap
	mass    core.Weight
	count   int
}

func newBlock(order int) *Block {
	b := &Block{members: make([]*roaring.Bitmap, order)}
	for m := range order {
		b.members[m] = roaring.New()
	}
	return b
}

// Mass returns the total weight of tuples whose coordinates are all members.
func (b *Block) Mass() core.Weight { return b.mass }

// Count returns the number of member attribute values across all modes.
func (b *Block) Count() int { return b.count }

// Density returns Mass/Count.
func (b *Block) Density() float64 {
	if b.count == 0 {
		return 0
	}
	return float64(b.mass) / float64(b.count)
}

// Contains reports whether a is a member along mode.
func (b *Block) Contains(mode core.Mode, a core.AttVal) bool {
	return b.members[mode].Contains(a)
}

// ContainsAll reports whether every coordinate of a tuple is a member.
func (b *Block) ContainsAll(coords []core.AttVal) bool {
	for m, a := range coords {
		if !b.members[m].Contains(a) {
			return false
		}
	}
	return true
}

// Members returns the sorted members along mode.
func (b *Block) Members(mode core.Mode) []core.AttVal {
	return b.members[mode].ToArray()
}

// Equal reports whether both blocks have the same members.
func (b *Block) Equal(o *Block) bool {
	if o == nil || b.count != o.count {
		return false
	}
	for m := range b.members {
		if !b.members[m].Equals(o.members[m]) {
			return false
		}
	}
	return true
}

func (b *Block) add(mode core.Mode, a core.AttVal) {
	if b.members[mode].CheckedAdd(a) {
		b.count++
	}
}

func (b *Block) remove(mode core.Mode, a core.AttVal) bool {
	if b.members[mode].CheckedRemove(a) {
		b.count--
		return true
	}
	return false
}
