package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/shoplist/internal/notify"
	"github.com/mesh-intelligence/shoplist/internal/observability"
	"github.com/mesh-intelligence/shoplist/pkg/types"
)

var _ types.Provider = (*Backend)(nil)

// Connection parameters. The writer owns the only writable connection; the
// reader pool is opened query_only.
const (
	writerPragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	readerPragmas = "_pragma=busy_timeout(5000)&_pragma=query_only(1)"
	maxReaders    = 4
)

// UpgradeFunc migrates the schema from oldVersion to newVersion inside the
// open transaction.
type UpgradeFunc func(ctx context.Context, tx *sql.Tx, oldVersion, newVersion int) error

// Backend implements types.Provider on a single SQLite file.
type Backend struct {
	mu       sync.RWMutex // guards attached and the handles
	writeMu  sync.Mutex   // serializes mutations on the writer
	attached bool
	config   types.Config
	writer   *sql.DB
	reader   *sql.DB
	hub      *notify.Hub

	log       *zap.Logger
	inst      *observability.Instruments
	onUpgrade UpgradeFunc
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(b *Backend) {
		if log != nil {
			b.log = log
		}
	}
}

// WithTracerProvider enables tracing of repository operations.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(b *Backend) {
		b.inst.Tracer = observability.NewTracer(tp)
	}
}

// WithMeterProvider enables repository metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(b *Backend) {
		b.inst.Metrics = observability.NewMetrics(mp)
	}
}

// WithUpgrade replaces the upgrade hook run when the file is older than
// DatabaseVersion. The default does nothing.
func WithUpgrade(fn UpgradeFunc) Option {
	return func(b *Backend) {
		if fn != nil {
			b.onUpgrade = fn
		}
	}
}

// NewBackend creates a detached backend. Call Attach to open storage.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		log:       zap.NewNop(),
		inst:      observability.Noop(),
		onUpgrade: noUpgrade,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens (creating on first use) the database under config.DataDir.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, DatabaseName)

	writer, err := sql.Open("sqlite", dsn(dbPath, writerPragmas))
	if err != nil {
		return fmt.Errorf("opening writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	if err := b.prepare(context.Background(), writer, DatabaseVersion); err != nil {
		writer.Close()
		return err
	}

	reader, err := sql.Open("sqlite", dsn(dbPath, readerPragmas))
	if err != nil {
		writer.Close()
		return fmt.Errorf("opening reader: %w", err)
	}
	reader.SetMaxOpenConns(maxReaders)

	b.writer = writer
	b.reader = reader
	b.config = config
	b.hub = notify.NewHub()
	b.attached = true

	b.log.Info("database attached",
		zap.String("path", dbPath),
		zap.Int("version", DatabaseVersion))
	return nil
}

// Detach closes both handles and drops every observer. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.hub.Close()
	readErr := b.reader.Close()
	writeErr := b.writer.Close()
	b.reader = nil
	b.writer = nil
	b.attached = false

	if writeErr != nil {
		return fmt.Errorf("closing writer: %w", writeErr)
	}
	if readErr != nil {
		return fmt.Errorf("closing reader: %w", readErr)
	}
	b.log.Info("database detached")
	return nil
}

// prepare brings the file to version: create on version 0, run the upgrade
// hook on older versions, refuse newer ones.
func (b *Backend) prepare(ctx context.Context, db *sql.DB, version int) error {
	var current int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if current == version {
		return nil
	}
	if current > version {
		return fmt.Errorf("%w from version %d to %d", types.ErrDowngrade, current, version)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	if current == 0 {
		for _, stmt := range schemaDDL {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("creating schema: %w", err)
			}
		}
	} else {
		b.log.Info("upgrading schema", zap.Int("from", current), zap.Int("to", version))
		if err := b.onUpgrade(ctx, tx, current, version); err != nil {
			return fmt.Errorf("upgrading schema from version %d: %w", current, err)
		}
	}

	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("writing schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	return nil
}

// noUpgrade is the default upgrade hook. Version 1 is the only schema.
func noUpgrade(context.Context, *sql.Tx, int, int) error {
	return nil
}

// readHandle returns the query_only pool, or ErrDetached.
func (b *Backend) readHandle() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.reader, nil
}

// writeHandle returns the single-connection writer, or ErrDetached.
func (b *Backend) writeHandle() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.writer, nil
}

// observers returns the hub, or ErrDetached.
func (b *Backend) observers() (*notify.Hub, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.hub, nil
}

func dsn(path, pragmas string) string {
	return "file:" + filepath.ToSlash(path) + "?" + pragmas
}
