package sink

import (
	"context"
	"fmt"

	"github.com/hupe1980/densealert/resource"
)

// Throttled bounds the concurrency and rate of publications to another sink.
type Throttled struct {
	next Sink
	ctrl *resource.Controller
}

// NewThrottled wraps next. A nil controller imposes no limits.
func NewThrottled(next Sink, ctrl *resource.Controller) *Throttled {
	return &Throttled{next: next, ctrl: ctrl}
}

// Publish waits for a write slot, then publishes to the wrapped sink.
func (t *Throttled) Publish(ctx context.Context, r Report) error {
	if err := t.ctrl.AcquireWrite(ctx); err != nil {
		return fmt.Errorf("throttled sink: %w", err)
	}
	defer t.ctrl.ReleaseWrite()

	return t.next.Publish(ctx, r)
}
