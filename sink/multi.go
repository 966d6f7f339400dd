package sink

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Multi publishes to every sink concurrently.
type Multi []Sink

// NewMulti combines sinks, skipping nil ones.
func NewMulti(sinks ...Sink) Multi {
	m := make(Multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

// Publish waits for all sinks and returns the first error.
// A failing sink does not cancel the others.
func (m Multi) Publish(ctx context.Context, r Report) error {
	var g errgroup.Group
	for _, s := range m {
		g.Go(func() error {
			return s.Publish(ctx, r)
		})
	}
	return g.Wait()
}
