package blobvault

import (
	"context"
	"log/slog"
	"net/url"
	"os"
)

// Logger wraps slog.Logger with blobvault-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithRoot adds the provider's root directory field to the logger.
func (l *Logger) WithRoot(root string) *Logger {
	return &Logger{
		Logger: l.Logger.With("root", root),
	}
}

// WithContainer adds the provider's container name field to the logger.
func (l *Logger) WithContainer(container string) *Logger {
	return &Logger{
		Logger: l.Logger.With("container", container),
	}
}

// LogCreate logs a blob creation.
func (l *Logger) LogCreate(ctx context.Context, uri *url.URL, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "create completed",
			"uri", uri.String(),
		)
	}
}

// LogRead logs a blob read.
func (l *Logger) LogRead(ctx context.Context, uri *url.URL, err error) {
	if err != nil {
		l.ErrorContext(ctx, "read failed",
			"uri", uri.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "read opened",
			"uri", uri.String(),
		)
	}
}

// LogDelete logs a blob deletion.
func (l *Logger) LogDelete(ctx context.Context, uri *url.URL, existed bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"uri", uri.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"uri", uri.String(),
			"existed", existed,
		)
	}
}
