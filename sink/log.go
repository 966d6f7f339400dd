package sink

import (
	"context"
	"log/slog"
)

// Log writes each report as one structured log record.
type Log struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLog creates a log sink writing at Info level.
// A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger, level: slog.LevelInfo}
}

// WithLevel returns a copy of the sink writing at level.
func (l *Log) WithLevel(level slog.Level) *Log {
	return &Log{logger: l.logger, level: level}
}

// Publish logs the report.
func (l *Log) Publish(ctx context.Context, r Report) error {
	l.logger.LogAttrs(ctx, l.level, "dense block",
		slog.String("id", r.ID.String()),
		slog.Time("time", r.Time),
		slog.Float64("density", r.Density),
		slog.Int64("mass", r.Mass),
		slog.Int("tuples", r.Tuples),
		slog.Int("size", r.Size()),
		slog.Any("block", r.Block),
	)
	return nil
}
