package densealert

import (
	"context"
	"log/slog"

	"github.com/hupe1980/densealert/sink"
)

// DefaultInitialCapacity is the default per-mode attribute value capacity.
const DefaultInitialCapacity = 1024

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	capacity         int
	sink             sink.Sink
	ctx              context.Context
}

// Option configures Detector and Window constructors.
type Option func(*options)

// WithMetricsCollector configures the metrics collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// Example:
//
//	logger := densealert.NewJSONLogger(slog.LevelInfo)
//	d, _ := densealert.New(3, densealert.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithInitialCapacity sets the number of attribute values per mode the
// detector preallocates. Capacity grows on demand either way.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithSink publishes a report every time the dense block changes.
func WithSink(s sink.Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithContext sets the context reports are published with. By default the
// context of the mutation that changed the block is used.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

func defaultOptions() options {
	return options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		capacity:         DefaultInitialCapacity,
	}
}
