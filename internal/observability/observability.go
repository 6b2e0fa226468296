// Package observability instruments repository operations with OpenTelemetry
// traces and metrics. When no providers are configured, no-op implementations
// are used.
package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Instrumentation identity.
const (
	TracerName = "github.com/mesh-intelligence/shoplist"
	MeterName  = "github.com/mesh-intelligence/shoplist"
)

// Attribute keys.
const (
	AttrOperation    = "shoplist.operation"
	AttrAddress      = "shoplist.address"
	AttrRowsAffected = "shoplist.rows_affected"
	AttrErrorClass   = "shoplist.error.class"
)

// Operation names.
const (
	OpQuery  = "query"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// OperationAttr returns the operation attribute.
func OperationAttr(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// AddressAttr returns the address attribute.
func AddressAttr(addr string) attribute.KeyValue {
	return attribute.String(AttrAddress, addr)
}

// Instruments bundles a Tracer and Metrics.
type Instruments struct {
	Tracer  *Tracer
	Metrics *Metrics
}

// New builds instruments from the given providers. A nil provider selects the
// no-op implementation.
func New(tp trace.TracerProvider, mp metric.MeterProvider) *Instruments {
	if tp == nil {
		tp = tracenoop.NewTracerProvider()
	}
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}
	return &Instruments{
		Tracer:  NewTracer(tp),
		Metrics: NewMetrics(mp),
	}
}

// Noop returns instruments that record nothing.
func Noop() *Instruments {
	return New(nil, nil)
}
