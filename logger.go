package ipfilter

import (
	"context"
)

// Logger records grant, deny and security events emitted by Filter.
//
// Implementations should be safe for concurrent use, as a single Filter
// instance is typically shared across many goroutines.
//
// The provided context comes from the inbound request and can carry tracing
// metadata (for example, trace or span IDs).
//
// The interface mirrors slog's InfoContext and WarnContext signatures, so
// *slog.Logger can be used directly without an adapter.
type Logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
}

// noopLogger is the default Logger implementation when logging is not
// explicitly configured.
type noopLogger struct{}

func (noopLogger) InfoContext(context.Context, string, ...any) {}

func (noopLogger) WarnContext(context.Context, string, ...any) {}

// Observer receives every decision produced by a configured Filter, after it
// is final. Observers run synchronously on the request goroutine and must be
// safe for concurrent use.
type Observer func(ctx context.Context, d Decision)
