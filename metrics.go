package densealert

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
// See the metrics/prometheus package for a ready-made implementation.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordExpire is called after a window expiry pass that removed tuples.
	RecordExpire(count int)

	// RecordDensity is called with the block density after each mutation.
	RecordDensity(density float64)

	// RecordBlockChange is called when the block's members change.
	// size is the number of attribute values in the new block.
	RecordBlockChange(size int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error) {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error) {}
func (NoopMetricsCollector) RecordExpire(int)                  {}
func (NoopMetricsCollector) RecordDensity(float64)             {}
func (NoopMetricsCollector) RecordBlockChange(int)             {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	DeleteCount      atomic.Int64
	DeleteErrors     atomic.Int64
	DeleteTotalNanos atomic.Int64
	ExpiredCount     atomic.Int64
	BlockChanges     atomic.Int64
	BlockSize        atomic.Int64
	densityBits      atomic.Uint64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	b.DeleteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordExpire implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExpire(count int) {
	b.ExpiredCount.Add(int64(count))
}

// RecordDensity implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDensity(density float64) {
	b.densityBits.Store(math.Float64bits(density))
}

// RecordBlockChange implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBlockChange(size int) {
	b.BlockChanges.Add(1)
	b.BlockSize.Store(int64(size))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:    b.InsertCount.Load(),
		InsertErrors:   b.InsertErrors.Load(),
		InsertAvgNanos: avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		DeleteCount:    b.DeleteCount.Load(),
		DeleteErrors:   b.DeleteErrors.Load(),
		DeleteAvgNanos: avg(b.DeleteTotalNanos.Load(), b.DeleteCount.Load()),
		ExpiredCount:   b.ExpiredCount.Load(),
		BlockChanges:   b.BlockChanges.Load(),
		BlockSize:      b.BlockSize.Load(),
		Density:        math.Float64frombits(b.densityBits.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount    int64
	InsertErrors   int64
	InsertAvgNanos int64
	DeleteCount    int64
	DeleteErrors   int64
	DeleteAvgNanos int64
	ExpiredCount   int64
	BlockChanges   int64
	BlockSize      int64
	Density        float64
}
