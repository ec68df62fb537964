package oteltrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/shopflow-io/shopflow/internal/observability"
)

type tracer struct{ t trace.Tracer }

// New wraps the globally configured OTel tracer. Installing a real
// TracerProvider with an exporter is the deployment's responsibility;
// without one this degrades to no-op spans.
func New(name string) observability.Tracer {
	if name == "" {
		name = "shopflow"
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
