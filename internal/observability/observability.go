// Package observability defines the telemetry ports handed to use cases and
// transports. Concrete vendors (zap, prometheus, otel) live behind these
// interfaces under internal/infrastructure/observability; domain and
// application code never import them directly.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the three capabilities a component may need. It is
// injected whole so constructors stay short; callers pick what they use.
type Observability interface {
	Tracer() Tracer
	Logger() Logger
	Metrics() Metrics
}

// Tracer starts spans. The otel span is returned directly; only span
// creation is wrapped, span usage is the otel API.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

// Logger is a leveled, field-structured logger.
type Logger interface {
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one structured log attribute.
type Field struct {
	Key   string
	Value any
}

// F builds a log field.
func F(k string, v any) Field { return Field{Key: k, Value: v} }

// Metrics resolves pre-registered instruments by key.
type Metrics interface {
	Counter(name MetricKey) Counter
	Histogram(name MetricKey) Histogram
}

// Counter is a monotonically increasing instrument. Bind fixes the label
// set once for hot paths that always report the same labels.
type Counter interface {
	Add(delta float64, labels ...Label)
	Bind(labels ...Label) BoundCounter
}

type BoundCounter interface {
	Add(delta float64)
}

// Histogram records value distributions (durations, in seconds).
type Histogram interface {
	Observe(value float64, labels ...Label)
	Bind(labels ...Label) BoundHistogram
}

type BoundHistogram interface {
	Observe(value float64)
}

// Label is one metric dimension.
type Label struct{ Key, Value string }

// L builds a metric label.
func L(k, v string) Label { return Label{Key: k, Value: v} }
