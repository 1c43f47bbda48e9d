package csmgo

import (
	"log/slog"
	"os"

	"github.com/cmi-dair/csmgo/surface"
)

// Logger wraps slog.Logger with pipeline-specific field helpers, giving all
// packages consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a default text handler to stderr.
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

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithSpecies adds a species field to the logger.
func (l *Logger) WithSpecies(sp surface.Species) *Logger {
	return &Logger{Logger: l.Logger.With("species", sp.String())}
}

// WithSurface adds a surface field to the logger.
func (l *Logger) WithSurface(surf surface.Surface) *Logger {
	return &Logger{Logger: l.Logger.With("surface", surf.String())}
}

// WithInput adds the input file pair to the logger.
func (l *Logger) WithInput(left, right string) *Logger {
	return &Logger{Logger: l.Logger.With("input_left", left, "input_right", right)}
}
