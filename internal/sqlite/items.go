package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/shoplist/internal/observability"
	"github.com/mesh-intelligence/shoplist/pkg/types"
)

// Query reads items at addr. A record address selects by id and ignores the
// caller's selection. The cursor observes addr and its records until closed.
func (b *Backend) Query(ctx context.Context, addr types.Address, q types.Query) (_ types.Cursor, err error) {
	ctx, done := b.instrument(ctx, observability.OpQuery, addr)
	defer func() { done(-1, err) }()

	tgt, err := resolve(addr, q.Selection, q.SelectionArgs)
	if err != nil {
		return nil, err
	}
	cols, err := projectionColumns(q.Projection)
	if err != nil {
		return nil, err
	}
	orderBy, err := orderByClause(q.SortOrder)
	if err != nil {
		return nil, err
	}

	db, err := b.readHandle()
	if err != nil {
		return nil, err
	}
	hub, err := b.observers()
	if err != nil {
		return nil, err
	}

	query := "SELECT " + strings.Join(cols, ", ") + " FROM " + types.TableItems
	if tgt.selection != "" {
		query += " WHERE " + tgt.selection
	}
	if orderBy != "" {
		query += " ORDER BY " + orderBy
	}

	b.log.Debug("querying items", zap.String("address", addr.String()), zap.String("sql", query))
	rows, err := db.QueryContext(ctx, query, tgt.args...)
	if err != nil {
		b.log.Error("query failed", zap.String("address", addr.String()), zap.Error(err))
		return nil, fmt.Errorf("querying items: %w: %w", types.ErrStorage, err)
	}

	c := newCursor(rows, cols)
	id := hub.Register(addr, true, c.signal)
	c.unregister = func() { hub.Unregister(id) }
	return c, nil
}

// Insert validates values and stores a new item. Only the collection address
// accepts inserts.
func (b *Backend) Insert(ctx context.Context, addr types.Address, values types.Values) (_ types.Address, err error) {
	ctx, done := b.instrument(ctx, observability.OpInsert, addr)
	defer func() { done(-1, err) }()

	tgt, err := resolve(addr, "", nil)
	if err != nil {
		return "", err
	}
	if tgt.code != matchItems {
		return "", fmt.Errorf("%w: insert is not supported for %q", types.ErrInvalidAddress, addr)
	}
	if err := validateInsert(values); err != nil {
		return "", err
	}

	cols, args := bindValues(values)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		types.TableItems,
		strings.Join(cols, ", "),
		placeholders(len(cols)),
	)

	id, err := b.write(func(db *sql.DB) (int64, error) {
		res, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, errNoRowWritten
		}
		return res.LastInsertId()
	})
	if err != nil {
		if errors.Is(err, types.ErrDetached) {
			return "", err
		}
		b.log.Error("failed to insert item", zap.String("address", addr.String()), zap.Error(err))
		return "", fmt.Errorf("inserting item: %w: %w", types.ErrStorage, err)
	}

	b.notify(addr)
	created := addr.WithID(id)
	b.log.Info("item inserted", zap.String("address", created.String()))
	return created, nil
}

// Update overwrites the present columns on the matching rows.
func (b *Backend) Update(ctx context.Context, addr types.Address, values types.Values, selection string, args ...any) (n int64, err error) {
	ctx, done := b.instrument(ctx, observability.OpUpdate, addr)
	defer func() { done(n, err) }()

	tgt, err := resolve(addr, selection, args)
	if err != nil {
		return 0, err
	}
	if err := validateUpdate(values); err != nil {
		return 0, err
	}
	if values.Len() == 0 {
		return 0, nil
	}

	cols, bound := bindValues(values)
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
	}
	query := "UPDATE " + types.TableItems + " SET " + strings.Join(sets, ", ")
	if tgt.selection != "" {
		query += " WHERE " + tgt.selection
	}
	bound = append(bound, tgt.args...)

	n, err = b.write(func(db *sql.DB) (int64, error) {
		res, err := db.ExecContext(ctx, query, bound...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
	if err != nil {
		if errors.Is(err, types.ErrDetached) {
			return 0, err
		}
		b.log.Error("failed to update items", zap.String("address", addr.String()), zap.Error(err))
		return 0, fmt.Errorf("updating items: %w: %w", types.ErrStorage, err)
	}

	if n != 0 {
		b.notify(addr)
		b.log.Info("items updated", zap.String("address", addr.String()), zap.Int64("rows", n))
	}
	return n, nil
}

// Delete removes the matching rows.
func (b *Backend) Delete(ctx context.Context, addr types.Address, selection string, args ...any) (n int64, err error) {
	ctx, done := b.instrument(ctx, observability.OpDelete, addr)
	defer func() { done(n, err) }()

	tgt, err := resolve(addr, selection, args)
	if err != nil {
		return 0, err
	}

	query := "DELETE FROM " + types.TableItems
	if tgt.selection != "" {
		query += " WHERE " + tgt.selection
	}

	n, err = b.write(func(db *sql.DB) (int64, error) {
		res, err := db.ExecContext(ctx, query, tgt.args...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
	if err != nil {
		if errors.Is(err, types.ErrDetached) {
			return 0, err
		}
		b.log.Error("failed to delete items", zap.String("address", addr.String()), zap.Error(err))
		return 0, fmt.Errorf("deleting items: %w: %w", types.ErrStorage, err)
	}

	if n != 0 {
		b.notify(addr)
		b.log.Info("items deleted", zap.String("address", addr.String()), zap.Int64("rows", n))
	}
	return n, nil
}

// TypeOf returns the MIME marker for addr. It does not need storage.
func (b *Backend) TypeOf(addr types.Address) (string, error) {
	code, _ := addressRoutes.match(addr)
	switch code {
	case matchItems:
		return types.ContentListType, nil
	case matchItemID:
		return types.ContentItemType, nil
	default:
		return "", fmt.Errorf("%w: %q", types.ErrInvalidAddress, addr)
	}
}

// Observe registers fn for changes at addr.
func (b *Backend) Observe(addr types.Address, descendants bool, fn types.Observer) (func(), error) {
	if code, _ := addressRoutes.match(addr); code == noMatch {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidAddress, addr)
	}
	if fn == nil {
		return nil, errors.New("observer must not be nil")
	}
	hub, err := b.observers()
	if err != nil {
		return nil, err
	}
	id := hub.Register(addr, descendants, fn)
	return func() { hub.Unregister(id) }, nil
}

// errNoRowWritten reports an insert the engine accepted without writing.
var errNoRowWritten = errors.New("no row written")

// write runs fn on the writer while holding the write lock.
func (b *Backend) write(fn func(db *sql.DB) (int64, error)) (int64, error) {
	db, err := b.writeHandle()
	if err != nil {
		return 0, err
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return fn(db)
}

// notify signals observers after the write lock is released, so observers
// may query or mutate from their callback.
func (b *Backend) notify(addr types.Address) {
	hub, err := b.observers()
	if err != nil {
		return
	}
	hub.Notify(addr)
}

// instrument starts a span and returns a function that ends it and records
// metrics. rows < 0 means the operation has no row count.
func (b *Backend) instrument(ctx context.Context, op string, addr types.Address) (context.Context, func(rows int64, err error)) {
	start := time.Now()
	ctx, span := b.inst.Tracer.StartOperation(ctx, op, addr.String())
	return ctx, func(rows int64, err error) {
		if err != nil {
			b.inst.Tracer.RecordError(span, err)
			b.inst.Metrics.RecordError(ctx, op, errorClass(err))
		} else if rows >= 0 {
			b.inst.Tracer.SetRowsAffected(span, rows)
			b.inst.Metrics.RecordRowsAffected(ctx, op, rows)
		}
		b.inst.Metrics.RecordOperation(ctx, op, time.Since(start))
		span.End()
	}
}

// errorClass names the error class for metrics.
func errorClass(err error) string {
	switch {
	case errors.Is(err, types.ErrValidation):
		return "validation"
	case errors.Is(err, types.ErrInvalidAddress):
		return "address"
	case errors.Is(err, types.ErrStorage):
		return "storage"
	default:
		return "lifecycle"
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
