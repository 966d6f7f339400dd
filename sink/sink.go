package sink

import "context"

// Sink receives reports.
// Implementations must be safe for concurrent use.
type Sink interface {
	Publish(ctx context.Context, r Report) error
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, r Report) error

// Publish calls f(ctx, r).
func (f Func) Publish(ctx context.Context, r Report) error { return f(ctx, r) }

// Discard drops every report.
var Discard Sink = Func(func(context.Context, Report) error { return nil })
