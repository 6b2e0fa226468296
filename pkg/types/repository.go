package types

import "context"

// Query describes a read. Selection is a SQL boolean expression over item
// columns using ? placeholders bound from SelectionArgs. It applies only to
// the collection address; a record address always selects by id.
type Query struct {
	Projection    []string // Columns to read; empty reads every column.
	Selection     string
	SelectionArgs []any
	SortOrder     string // e.g. "name ASC, quantity DESC".
}

// Cursor is a lazily iterated, single-pass result of Repository.Query.
type Cursor interface {
	// Next advances to the next item. It returns false when the rows are
	// exhausted or an error occurred; check Err afterwards.
	Next() bool

	// Item returns the current item. Columns outside the projection hold
	// their zero value.
	Item() Item

	// Columns returns the projected columns in read order.
	Columns() []string

	// Changes signals when data at the queried address changed after the
	// cursor was opened. Signals coalesce; the channel is never closed.
	Changes() <-chan struct{}

	Err() error

	// Close releases the rows and the change registration. Idempotent.
	Close() error
}

// Observer receives the address of a change.
type Observer func(changed Address)

// Repository provides CRUD access to items addressed by Address values.
type Repository interface {
	// Query reads items at addr. Returns ErrInvalidAddress for an
	// unrecognized address.
	Query(ctx context.Context, addr Address, q Query) (Cursor, error)

	// Insert validates and stores a new item. addr must be the collection
	// address. Returns the record address of the new item.
	Insert(ctx context.Context, addr Address, values Values) (Address, error)

	// Update overwrites the columns present in values on every matching
	// item and returns the number of rows changed. An empty payload returns
	// 0 without touching storage.
	Update(ctx context.Context, addr Address, values Values, selection string, args ...any) (int64, error)

	// Delete removes every matching item and returns the number removed.
	Delete(ctx context.Context, addr Address, selection string, args ...any) (int64, error)

	// TypeOf returns ContentListType or ContentItemType.
	TypeOf(addr Address) (string, error)

	// Observe registers fn for changes at addr. With descendants set, changes
	// to records under addr are delivered as well. The returned function
	// unregisters fn.
	Observe(addr Address, descendants bool, fn Observer) (func(), error)
}

// Provider is a Repository with an attach/detach lifecycle.
type Provider interface {
	Repository

	// Attach opens the storage described by config, creating it on first
	// use. Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases storage resources. Idempotent. After Detach,
	// operations return ErrDetached.
	Detach() error
}

// Collect drains c into a slice and closes it. The result is empty, not nil,
// when there are no rows.
func Collect(c Cursor) ([]Item, error) {
	defer c.Close()
	items := []Item{}
	for c.Next() {
		items = append(items, c.Item())
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
