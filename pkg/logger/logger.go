// Package logger provides structured logging using slog for the CLI.
// Log lines go to stderr so streamed event output on stdout stays clean.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with CLI-oriented constructors.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the specified level and format, writing
// to w.
func New(w io.Writer, level slog.Level, json bool) *Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Default creates a logger with default settings (INFO level, text
// format, stderr).
func Default() *Logger {
	return New(os.Stderr, slog.LevelInfo, false)
}

// WithComponent returns a new Logger with the component field.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component)}
}

// WithRunID returns a new Logger carrying the per-invocation run ID.
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{Logger: l.Logger.With("run_id", runID)}
}

// WithError returns a new Logger with the error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With("error", err.Error())}
}
