package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/shoplist/pkg/types"
)

var _ types.Cursor = (*cursor)(nil)

// cursor decodes rows of the items table into types.Item one at a time.
type cursor struct {
	rows    *sql.Rows
	columns []string
	current types.Item
	err     error

	changes    chan struct{}
	unregister func()
	closeOnce  sync.Once
	closeErr   error
}

func newCursor(rows *sql.Rows, columns []string) *cursor {
	return &cursor{
		rows:       rows,
		columns:    columns,
		changes:    make(chan struct{}, 1),
		unregister: func() {},
	}
}

// Next scans the next row into the current item.
func (c *cursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	it, err := c.scan()
	if err != nil {
		c.err = err
		return false
	}
	c.current = it
	return true
}

func (c *cursor) scan() (types.Item, error) {
	var it types.Item
	var category int64
	var description sql.NullString

	dest := make([]any, len(c.columns))
	for i, col := range c.columns {
		switch col {
		case types.ColumnID:
			dest[i] = &it.ID
		case types.ColumnName:
			dest[i] = &it.Name
		case types.ColumnDescription:
			dest[i] = &description
		case types.ColumnCategory:
			dest[i] = &category
		case types.ColumnQuantity:
			dest[i] = &it.Quantity
		}
	}
	if err := c.rows.Scan(dest...); err != nil {
		return types.Item{}, fmt.Errorf("scanning item: %w: %w", types.ErrStorage, err)
	}
	it.Description = description.String
	it.Category = types.Category(category)
	return it, nil
}

func (c *cursor) Item() types.Item {
	return c.current
}

func (c *cursor) Columns() []string {
	out := make([]string, len(c.columns))
	copy(out, c.columns)
	return out
}

func (c *cursor) Changes() <-chan struct{} {
	return c.changes
}

// signal is the observer attached to the queried address.
func (c *cursor) signal(types.Address) {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func (c *cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	if err := c.rows.Err(); err != nil {
		return fmt.Errorf("iterating items: %w: %w", types.ErrStorage, err)
	}
	return nil
}

func (c *cursor) Close() error {
	c.closeOnce.Do(func() {
		c.unregister()
		c.closeErr = c.rows.Close()
	})
	return c.closeErr
}
