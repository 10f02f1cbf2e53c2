package arbor

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/arbor/frontier"
)

// Logger wraps slog.Logger with arbor-specific context.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithTree adds a tree index field to the logger.
func (l *Logger) WithTree(tree int) *Logger {
	return &Logger{
		Logger: l.Logger.With("tree", tree),
	}
}

// WithLevel adds a level field to the logger.
func (l *Logger) WithLevel(level int) *Logger {
	return &Logger{
		Logger: l.Logger.With("level", level),
	}
}

// LogLevel logs a completed induction level.
func (l *Logger) LogLevel(ctx context.Context, st frontier.LevelStats) {
	l.DebugContext(ctx, "level completed",
		"level", st.Level,
		"nodes", st.Nodes,
		"candidates", st.Candidates,
		"restages", st.Restages,
		"restaged_cells", st.RestagedCells,
		"splits", st.Splits,
		"layers", st.Layers,
	)
}

// LogTree logs the outcome of training one tree.
func (l *Logger) LogTree(ctx context.Context, t *Tree, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "tree training failed",
			"duration", duration,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "tree trained",
		"nodes", t.NNode(),
		"leaves", t.NLeaf(),
		"depth", t.Depth(),
		"levels", t.Stats.Levels,
		"restaged", t.Stats.Restaged,
		"duration", duration,
	)
}

// LogForest logs the outcome of training a forest.
func (l *Logger) LogForest(ctx context.Context, nTree int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "forest training failed",
			"trees", nTree,
			"duration", duration,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "forest trained",
		"trees", nTree,
		"duration", duration,
	)
}
