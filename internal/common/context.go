package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID    contextKey = "run_id"
	ContextKeyDocument contextKey = "document"
)

// WithRunID adds a batch run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithDocument adds the document path being processed to the context
func WithDocument(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ContextKeyDocument, path)
}

// DocumentFromContext extracts the document path from context
func DocumentFromContext(ctx context.Context) string {
	if doc, ok := ctx.Value(ContextKeyDocument).(string); ok {
		return doc
	}
	return ""
}

// LoggerFrom decorates logger with the run and document carried by ctx.
func LoggerFrom(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := RunIDFromContext(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	if doc := DocumentFromContext(ctx); doc != "" {
		logger = logger.With("document", doc)
	}
	return logger
}

// ParseLevel maps LOG_LEVEL values onto slog levels; unknown values mean info.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
