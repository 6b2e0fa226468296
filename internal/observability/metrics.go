package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the repository metric instruments.
type Metrics struct {
	duration     metric.Float64Histogram
	count        metric.Int64Counter
	rowsAffected metric.Int64Histogram
	errorCount   metric.Int64Counter
}

// NewMetrics creates the instruments on mp. Instrument creation errors fall
// back to an unconfigured instrument of the same name.
func NewMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}

	var err error
	m.duration, err = meter.Float64Histogram(
		"shoplist.operation.duration",
		metric.WithDescription("Duration of repository operations in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		m.duration, _ = meter.Float64Histogram("shoplist.operation.duration")
	}

	m.count, err = meter.Int64Counter(
		"shoplist.operation.count",
		metric.WithDescription("Total number of repository operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		m.count, _ = meter.Int64Counter("shoplist.operation.count")
	}

	m.rowsAffected, err = meter.Int64Histogram(
		"shoplist.rows.affected",
		metric.WithDescription("Rows written or removed by a mutation"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		m.rowsAffected, _ = meter.Int64Histogram("shoplist.rows.affected")
	}

	m.errorCount, err = meter.Int64Counter(
		"shoplist.error.count",
		metric.WithDescription("Total number of failed repository operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.errorCount, _ = meter.Int64Counter("shoplist.error.count")
	}

	return m
}

// RecordOperation records one completed operation.
func (m *Metrics) RecordOperation(ctx context.Context, op string, duration time.Duration) {
	attrs := metric.WithAttributes(OperationAttr(op))
	m.duration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	m.count.Add(ctx, 1, attrs)
}

// RecordRowsAffected records the row count of a mutation.
func (m *Metrics) RecordRowsAffected(ctx context.Context, op string, n int64) {
	m.rowsAffected.Record(ctx, n, metric.WithAttributes(OperationAttr(op)))
}

// RecordError records a failed operation with its error class.
func (m *Metrics) RecordError(ctx context.Context, op, class string) {
	m.errorCount.Add(ctx, 1, metric.WithAttributes(
		OperationAttr(op),
		attribute.String(AttrErrorClass, class),
	))
}
