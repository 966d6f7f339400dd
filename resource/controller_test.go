package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Concurrency(t *testing.T) {
	c := NewController(Config{MaxConcurrentWrites: 2})

	// Acquire 2
	require.NoError(t, c.AcquireWrite(context.Background()))
	require.NoError(t, c.AcquireWrite(context.Background()))
	assert.Equal(t, int64(2), c.InFlight())

	// Try 3rd
	assert.False(t, c.TryAcquireWrite())

	// Acquire 3rd (should block/timeout)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireWrite(ctx), context.DeadlineExceeded)

	// Release 1
	c.ReleaseWrite()
	assert.Equal(t, int64(1), c.InFlight())

	// Try 3rd again
	assert.True(t, c.TryAcquireWrite())
}

func TestController_DefaultsToOneSlot(t *testing.T) {
	c := NewController(Config{})
	assert.True(t, c.TryAcquireWrite())
	assert.False(t, c.TryAcquireWrite())
	c.ReleaseWrite()
	assert.True(t, c.TryAcquireWrite())
}

func TestController_WriteRate(t *testing.T) {
	c := NewController(Config{MaxConcurrentWrites: 10, WritesPerSec: 1})

	assert.True(t, c.TryAcquireWrite())
	// The single token is spent and the slot must not leak.
	assert.False(t, c.TryAcquireWrite())
	assert.Equal(t, int64(1), c.InFlight())
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{BytesPerSec: 100})

	// Burst fits.
	require.NoError(t, c.AcquireIO(context.Background(), 100))

	// Bucket is empty now; the next request cannot complete in time.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireIO(ctx, 50))
}

func TestController_Unlimited(t *testing.T) {
	c := NewController(Config{MaxConcurrentWrites: 1})
	require.NoError(t, c.AcquireIO(context.Background(), 1<<30))
}

func TestController_NilIsUnlimited(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireWrite(context.Background()))
	assert.True(t, c.TryAcquireWrite())
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20))
	c.ReleaseWrite()
	assert.Equal(t, int64(0), c.InFlight())
}
