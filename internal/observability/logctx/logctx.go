// Package logctx carries a request-scoped logger through context. The HTTP
// middleware seeds it with request_id/trace fields; use cases and bus
// handlers pick it up via FromOr so their log lines correlate.
package logctx

import (
	"context"

	"github.com/shopflow-io/shopflow/internal/observability"
)

type ctxKey struct{}

// With attaches the logger to the context. Nil inputs pass through.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// From returns the context logger, or nil when none was attached.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(ctxKey{}).(observability.Logger)
	return logger
}

// FromOr prefers the context logger and falls back otherwise. The fallback
// is the component's own base logger, so lines are never dropped.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if logger := From(ctx); logger != nil {
		return logger
	}
	return fallback
}
