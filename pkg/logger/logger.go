// Package logger configures structured slog output and carries a
// request-scoped logger through context.
package logger

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// New returns the process logger. JSON to stdout everywhere; debug
// level outside production so local runs show cache and auth detail.
func New(appEnv string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("app", "haroval")
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// ShutdownFlush exists so main has a single flush point if a buffered
// handler is ever adopted.
func ShutdownFlush(_ context.Context, _ time.Duration) error { return nil }
