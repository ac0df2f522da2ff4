// Package logging builds the process logger and carries request scoped
// fields through contexts.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldOwnerID   = "owner_id"
)

// New constructs a slog logger. Format is "json" or "console".
func New(opts Options) (*slog.Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	level := ParseLevel(opts.Level)
	handlerOpts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	switch format {
	case "", "console", "text":
		return slog.New(slog.NewTextHandler(out, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type requestIDKey struct{}

type loggerKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// WithLogger stores logger in ctx for FromContext.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the stored logger, or the default one, with the
// request id attached when present.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if ctx == nil {
		return logger
	}
	if stored, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && stored != nil {
		logger = stored
	}
	if id, ok := RequestIDFromContext(ctx); ok {
		logger = logger.With(slog.String(FieldRequestID, id))
	}
	return logger
}
