package densealert

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with detector-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithOrder adds an order (number of modes) field to the logger.
func (l *Logger) WithOrder(order int) *Logger {
	return &Logger{
		Logger: l.Logger.With("order", order),
	}
}

// WithMode adds a mode field to the logger.
func (l *Logger) WithMode(mode int) *Logger {
	return &Logger{
		Logger: l.Logger.With("mode", mode),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, keys []string, weight int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"keys", keys,
			"weight", weight,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"keys", keys,
			"weight", weight,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, keys []string, weight int64, retired int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"keys", keys,
			"weight", weight,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"keys", keys,
			"weight", weight,
			"retired", retired,
		)
	}
}

// LogBlockChange logs a change of the densest block's members.
func (l *Logger) LogBlockChange(ctx context.Context, density float64, size int) {
	l.InfoContext(ctx, "dense block changed",
		"density", density,
		"size", size,
	)
}

// LogExpire logs a window expiry pass.
func (l *Logger) LogExpire(ctx context.Context, expired int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "expiry failed",
			"expired", expired,
			"error", err,
		)
	} else if expired > 0 {
		l.DebugContext(ctx, "expiry completed",
			"expired", expired,
		)
	}
}

// LogPublish logs a report publication.
func (l *Logger) LogPublish(ctx context.Context, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "publish failed",
			"report", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "report published",
			"report", id,
		)
	}
}
