// Package resource limits the IO issued by report sinks.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds sink IO limits.
type Config struct {
	// MaxConcurrentWrites is the maximum number of in-flight writes.
	// If 0, defaults to 1.
	MaxConcurrentWrites int64

	// WritesPerSec is the maximum number of writes started per second.
	// If 0, unlimited.
	WritesPerSec float64

	// BytesPerSec is the maximum write throughput.
	// If 0, unlimited.
	BytesPerSec int64
}

// Controller gates writes through a concurrency limit and two token buckets.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	writeSem *semaphore.Weighted
	inFlight atomic.Int64

	writeLimiter *rate.Limiter // nil if unlimited
	ioLimiter    *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentWrites <= 0 {
		cfg.MaxConcurrentWrites = 1
	}

	c := &Controller{
		cfg:      cfg,
		writeSem: semaphore.NewWeighted(cfg.MaxConcurrentWrites),
	}

	if cfg.WritesPerSec > 0 {
		c.writeLimiter = rate.NewLimiter(rate.Limit(cfg.WritesPerSec), max(1, int(cfg.WritesPerSec)))
	}

	if cfg.BytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.BytesPerSec), int(cfg.BytesPerSec))
	}

	return c
}

// AcquireWrite reserves a write slot and waits for the write rate to allow
// one more write. Blocks until both are available or ctx is canceled.
func (c *Controller) AcquireWrite(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.writeSem.Acquire(ctx, 1); err != nil {
		return err
	}
	if c.writeLimiter != nil {
		if err := c.writeLimiter.Wait(ctx); err != nil {
			c.writeSem.Release(1)
			return err
		}
	}
	c.inFlight.Add(1)
	return nil
}

// TryAcquireWrite reserves a write slot without blocking. The write rate is
// consumed only if a token is immediately available.
func (c *Controller) TryAcquireWrite() bool {
	if c == nil {
		return true
	}
	if !c.writeSem.TryAcquire(1) {
		return false
	}
	if c.writeLimiter != nil && !c.writeLimiter.Allow() {
		c.writeSem.Release(1)
		return false
	}
	c.inFlight.Add(1)
	return true
}

// ReleaseWrite releases a write slot.
func (c *Controller) ReleaseWrite() {
	if c == nil {
		return
	}
	c.inFlight.Add(-1)
	c.writeSem.Release(1)
}

// InFlight returns the number of writes currently holding a slot.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than one second of throughput are paid in chunks.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
