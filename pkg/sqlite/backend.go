// Package sqlite provides the public API for the SQLite item store.
// It exposes the factory and options while keeping the implementation
// internal.
package sqlite

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/shoplist/internal/sqlite"
	"github.com/mesh-intelligence/shoplist/pkg/types"
)

// Option configures a backend created by NewBackend.
type Option = sqlite.Option

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option { return sqlite.WithLogger(log) }

// WithTracerProvider traces every repository operation.
func WithTracerProvider(tp trace.TracerProvider) Option { return sqlite.WithTracerProvider(tp) }

// WithMeterProvider records repository metrics.
func WithMeterProvider(mp metric.MeterProvider) Option { return sqlite.WithMeterProvider(mp) }

// NewBackend creates a new SQLite item store.
// The backend is not attached; call Attach with a Config to open it.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".shoplist-db",
//	})
//	defer backend.Detach()
func NewBackend(opts ...Option) types.Provider {
	return sqlite.NewBackend(opts...)
}
