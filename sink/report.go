package sink

import (
	"time"

	"github.com/google/uuid"
)

// Report is a snapshot of the densest block found so far.
type Report struct {
	ID      uuid.UUID  `json:"id" msgpack:"id"`
	Time    time.Time  `json:"time" msgpack:"time"`
	Order   int        `json:"order" msgpack:"order"`
	Density float64    `json:"density" msgpack:"density"`
	Mass    int64      `json:"mass" msgpack:"mass"`
	Tuples  int        `json:"tuples" msgpack:"tuples"`
	Block   [][]string `json:"block" msgpack:"block"`
}

// NewReport creates a report with a fresh random ID stamped with the current
// UTC time.
func NewReport(order int, density float64, mass int64, tuples int, block [][]string) Report {
	return Report{
		ID:      uuid.New(),
		Time:    time.Now().UTC(),
		Order:   order,
		Density: density,
		Mass:    mass,
		Tuples:  tuples,
		Block:   block,
	}
}

// Size returns the number of attribute values in the block.
func (r Report) Size() int {
	n := 0
	for _, ids := range r.Block {
		n += len(ids)
	}
	return n
}
