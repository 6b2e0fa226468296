package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer with per-operation span helpers.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer from tp.
func NewTracer(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartOperation starts a span named "shoplist.<op>" for addr.
func (t *Tracer) StartOperation(ctx context.Context, op, addr string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "shoplist."+op, trace.WithAttributes(
		OperationAttr(op),
		AddressAttr(addr),
	))
}

// SetRowsAffected records the number of rows touched by a mutation.
func (t *Tracer) SetRowsAffected(span trace.Span, n int64) {
	span.SetAttributes(attribute.Int64(AttrRowsAffected, n))
}

// RecordError marks the span as failed.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
