package densealert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/densealert/internal/queue"
)

// Window is a Detector whose tuples expire a fixed span after they arrive.
//
// Delete cancels weight from the oldest pending arrivals of the tuple, so
// later arrivals still expire on their own deadline. Deleting through the
// embedded Detector bypasses that accounting and can make an older arrival
// take a newer one's weight with it.
type Window struct {
	*Detector

	mu      sync.Mutex
	span    time.Duration
	pending *queue.DeadlineQueue[Tuple]

	// queued and cancelled hold pending and already deleted weight per key.
	queued    map[string]int64
	cancelled map[string]int64
}

// NewWindow creates a windowed detector for tuples with order modes.
// span must be positive.
func NewWindow(order int, span time.Duration, optFns ...Option) (*Window, error) {
	if span <= 0 {
		return nil, fmt.Errorf("window span must be positive, got %s", span)
	}
	d, err := New(order, optFns...)
	if err != nil {
		return nil, err
	}
	return &Window{
		Detector: d,
		span:      span,
		pending:   queue.NewDeadline[Tuple](64),
		queued:    make(map[string]int64),
		cancelled: make(map[string]int64),
	}, nil
}

// Span returns the window length.
func (w *Window) Span() time.Duration { return w.span }

// Insert expires every tuple whose expiry is before ts, then inserts t and
// schedules its deletion at ts plus the span. Timestamps need not be
// monotonic, but a tuple older than already expired ones only leaves once a
// later Insert or Advance passes its expiry.
func (w *Window) Insert(ctx context.Context, t Tuple, ts time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.expire(ctx, ts); err != nil {
		return err
	}
	if t.Weight == 0 {
		return w.Detector.validate(t)
	}
	if err := w.Detector.Insert(ctx, t); err != nil {
		return err
	}
	keys := make([]string, len(t.Keys))
	copy(keys, t.Keys)
	w.pending.Push(ts.Add(w.span), Tuple{Keys: keys, Weight: t.Weight})
	w.queued[pendingKey(keys)] += t.Weight
	return nil
}

// Delete subtracts t.Weight from the stored tuple and cancels up to that
// weight from its oldest pending arrivals.
func (w *Window) Delete(ctx context.Context, t Tuple) ([]bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	retired, err := w.Detector.Delete(ctx, t)
	if err != nil || t.Weight == 0 {
		return retired, err
	}
	k := pendingKey(t.Keys)
	if c := min(t.Weight, w.queued[k]-w.cancelled[k]); c > 0 {
		w.cancelled[k] += c
	}
	return retired, nil
}

// Advance expires every tuple whose expiry is before ts.
func (w *Window) Advance(ctx context.Context, ts time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expire(ctx, ts)
}

// Pending returns the number of tuples waiting to expire.
func (w *Window) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending.Len()
}

func (w *Window) expire(ctx context.Context, ts time.Time) error {
	n := 0
	var err error
	for {
		at, t, ok := w.pending.Peek()
		if !ok || !at.Before(ts) {
			break
		}
		w.pending.Pop()
		if t = w.settle(t); t.Weight == 0 {
			continue
		}
		_, derr := w.Detector.Delete(ctx, t)
		switch {
		case derr == nil:
			n++
		case errors.Is(derr, ErrNotFound), errors.Is(derr, ErrEmpty):
			// Deleted through the embedded Detector.
		default:
			err = errors.Join(err, derr)
		}
	}
	if n > 0 {
		w.metrics.RecordExpire(n)
	}
	w.logger.LogExpire(ctx, n, err)
	return err
}

// settle drops an expiring arrival from the per-key accounting and returns
// it with any cancelled weight taken off.
func (w *Window) settle(t Tuple) Tuple {
	k := pendingKey(t.Keys)
	if w.queued[k] -= t.Weight; w.queued[k] <= 0 {
		delete(w.queued, k)
	}
	if c := min(w.cancelled[k], t.Weight); c > 0 {
		t.Weight -= c
		if w.cancelled[k] -= c; w.cancelled[k] == 0 {
			delete(w.cancelled, k)
		}
	}
	return t
}

func pendingKey(keys []string) string { return strings.Join(keys, "\x00") }
