// Tests for item CRUD through addresses, validation and change signals.
package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/shoplist/pkg/types"
)

func insertItem(t *testing.T, b *Backend, it types.Item) types.Address {
	t.Helper()
	addr, err := b.Insert(context.Background(), types.CollectionAddress, types.ItemValues(it))
	require.NoError(t, err)
	return addr
}

func listItems(t *testing.T, b *Backend, addr types.Address, q types.Query) []types.Item {
	t.Helper()
	c, err := b.Query(context.Background(), addr, q)
	require.NoError(t, err)
	items, err := types.Collect(c)
	require.NoError(t, err)
	return items
}

func TestItems_InsertAndQuery(t *testing.T) {
	b, _ := attachedBackend(t)

	addr := insertItem(t, b, types.Item{Name: "Milk", Category: types.CategoryFood, Quantity: 2})
	assert.Equal(t, types.RecordAddress(1), addr)

	items := listItems(t, b, addr, types.Query{})
	require.Len(t, items, 1)
	assert.Equal(t, types.Item{ID: 1, Name: "Milk", Description: "", Category: types.CategoryFood, Quantity: 2}, items[0])
}

func TestItems_InsertValidation(t *testing.T) {
	tests := []struct {
		name    string
		values  types.Values
		wantErr error
	}{
		{
			name:    "missing name",
			values:  types.NewValues().PutInt(types.ColumnCategory, 1),
			wantErr: types.ErrMissingName,
		},
		{
			name:    "null name",
			values:  types.NewValues().PutNull(types.ColumnName).PutInt(types.ColumnCategory, 1),
			wantErr: types.ErrMissingName,
		},
		{
			name:    "name not text",
			values:  types.Values{types.ColumnName: 12, types.ColumnCategory: 1},
			wantErr: types.ErrMissingName,
		},
		{
			name:    "missing category",
			values:  types.NewValues().PutString(types.ColumnName, "Eggs"),
			wantErr: types.ErrInvalidCategory,
		},
		{
			name:    "category out of range",
			values:  types.NewValues().PutString(types.ColumnName, "Eggs").PutInt(types.ColumnCategory, 99).PutInt(types.ColumnQuantity, 1),
			wantErr: types.ErrInvalidCategory,
		},
		{
			name:    "negative category",
			values:  types.NewValues().PutString(types.ColumnName, "Eggs").PutInt(types.ColumnCategory, -1),
			wantErr: types.ErrInvalidCategory,
		},
		{
			name:    "negative quantity",
			values:  types.NewValues().PutString(types.ColumnName, "Eggs").PutInt(types.ColumnCategory, 1).PutInt(types.ColumnQuantity, -3),
			wantErr: types.ErrInvalidQuantity,
		},
		{
			name:    "null quantity",
			values:  types.NewValues().PutString(types.ColumnName, "Eggs").PutInt(types.ColumnCategory, 1).PutNull(types.ColumnQuantity),
			wantErr: types.ErrInvalidQuantity,
		},
		{
			name:    "description not text",
			values:  types.Values{types.ColumnName: "Eggs", types.ColumnCategory: 1, types.ColumnDescription: 3.5},
			wantErr: types.ErrInvalidDescription,
		},
		{
			name:    "unknown column",
			values:  types.NewValues().PutString(types.ColumnName, "Eggs").PutInt(types.ColumnCategory, 1).PutString("price", "2"),
			wantErr: types.ErrUnknownColumn,
		},
		{
			name:    "id supplied",
			values:  types.NewValues().PutString(types.ColumnName, "Eggs").PutInt(types.ColumnCategory, 1).PutInt(types.ColumnID, 9),
			wantErr: types.ErrImmutableID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := attachedBackend(t)

			_, err := b.Insert(context.Background(), types.CollectionAddress, tt.values)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, types.ErrValidation)

			assert.Empty(t, listItems(t, b, types.CollectionAddress, types.Query{}), "no row persisted")
		})
	}
}

func TestItems_InsertDefaults(t *testing.T) {
	b, _ := attachedBackend(t)
	ctx := context.Background()

	addr, err := b.Insert(ctx, types.CollectionAddress,
		types.NewValues().PutString(types.ColumnName, "Salt").PutInt(types.ColumnCategory, 0).PutNull(types.ColumnDescription))
	require.NoError(t, err)

	items := listItems(t, b, addr, types.Query{})
	require.Len(t, items, 1)
	assert.Equal(t, int64(0), items[0].Quantity, "quantity defaults to 0")
	assert.Equal(t, "", items[0].Description, "NULL description reads as empty")
}

func TestItems_InsertEmptyNameAccepted(t *testing.T) {
	b, _ := attachedBackend(t)
	addr := insertItem(t, b, types.Item{Name: "", Category: types.CategoryOther})
	assert.Len(t, listItems(t, b, addr, types.Query{}), 1)
}

func TestItems_InsertRequiresCollection(t *testing.T) {
	b, _ := attachedBackend(t)
	_, err := b.Insert(context.Background(), types.RecordAddress(1), types.ItemValues(types.Item{Name: "Tea"}))
	assert.ErrorIs(t, err, types.ErrInvalidAddress)
}

func TestItems_InvalidAddress(t *testing.T) {
	b, _ := attachedBackend(t)
	ctx := context.Background()
	bad := []types.Address{
		"",
		"content://com.mesh-intelligence.shoplist",
		"content://com.mesh-intelligence.shoplist/notes",
		"content://other.authority/items",
		"http://com.mesh-intelligence.shoplist/items",
		"content://com.mesh-intelligence.shoplist/items/abc",
		"content://com.mesh-intelligence.shoplist/items/-1",
		"content://com.mesh-intelligence.shoplist/items/1/2",
		"content://com.mesh-intelligence.shoplist/items?x=1",
	}
	for _, addr := range bad {
		t.Run(string(addr), func(t *testing.T) {
			_, err := b.Query(ctx, addr, types.Query{})
			assert.ErrorIs(t, err, types.ErrInvalidAddress)
			_, err = b.Update(ctx, addr, types.NewValues().PutInt(types.ColumnQuantity, 1), "")
			assert.ErrorIs(t, err, types.ErrInvalidAddress)
			_, err = b.Delete(ctx, addr, "")
			assert.ErrorIs(t, err, types.ErrInvalidAddress)
			_, err = b.TypeOf(addr)
			assert.ErrorIs(t, err, types.ErrInvalidAddress)
			_, err = b.Observe(addr, false, func(types.Address) {})
			assert.ErrorIs(t, err, types.ErrInvalidAddress)
		})
	}
}

func TestItems_Query(t *testing.T) {
	b, _ := attachedBackend(t)
	insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood, Quantity: 1})
	insertItem(t, b, types.Item{Name: "Milk", Category: types.CategoryDiary, Quantity: 2})
	insertItem(t, b, types.Item{Name: "Apples", Category: types.CategoryFood, Quantity: 6})

	tests := []struct {
		name  string
		addr  types.Address
		query types.Query
		want  []string
	}{
		{
			name: "collection in id order",
			addr: types.CollectionAddress,
			want: []string{"Bread", "Milk", "Apples"},
		},
		{
			name:  "selection with bound args",
			addr:  types.CollectionAddress,
			query: types.Query{Selection: "category = ?", SelectionArgs: []any{int64(types.CategoryFood)}},
			want:  []string{"Bread", "Apples"},
		},
		{
			name:  "sort order",
			addr:  types.CollectionAddress,
			query: types.Query{SortOrder: "name asc"},
			want:  []string{"Apples", "Bread", "Milk"},
		},
		{
			name:  "multi-column sort",
			addr:  types.CollectionAddress,
			query: types.Query{SortOrder: "category DESC, quantity DESC"},
			want:  []string{"Milk", "Apples", "Bread"},
		},
		{
			name:  "record address ignores selection",
			addr:  types.RecordAddress(2),
			query: types.Query{Selection: "1 = 0"},
			want:  []string{"Milk"},
		},
		{
			name: "missing record",
			addr: types.RecordAddress(42),
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := listItems(t, b, tt.addr, tt.query)
			names := make([]string, 0, len(items))
			for _, it := range items {
				names = append(names, it.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestItems_QueryProjection(t *testing.T) {
	b, _ := attachedBackend(t)
	insertItem(t, b, types.Item{Name: "Bread", Description: "Rye", Category: types.CategoryFood, Quantity: 1})

	c, err := b.Query(context.Background(), types.CollectionAddress,
		types.Query{Projection: []string{types.ColumnID, types.ColumnName}})
	require.NoError(t, err)
	assert.Equal(t, []string{types.ColumnID, types.ColumnName}, c.Columns())

	items, err := types.Collect(c)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, types.Item{ID: 1, Name: "Bread"}, items[0])
}

func TestItems_QueryRejectsBadInput(t *testing.T) {
	b, _ := attachedBackend(t)
	ctx := context.Background()

	_, err := b.Query(ctx, types.CollectionAddress, types.Query{Projection: []string{"price"}})
	assert.ErrorIs(t, err, types.ErrUnknownColumn)

	_, err = b.Query(ctx, types.CollectionAddress, types.Query{SortOrder: "name; DROP TABLE items"})
	assert.ErrorIs(t, err, types.ErrInvalidSortOrder)

	_, err = b.Query(ctx, types.CollectionAddress, types.Query{SortOrder: "price"})
	assert.ErrorIs(t, err, types.ErrUnknownColumn)

	_, err = b.Query(ctx, types.CollectionAddress, types.Query{Selection: "no_such_column = 1"})
	assert.ErrorIs(t, err, types.ErrStorage)
}

func TestItems_Update(t *testing.T) {
	b, _ := attachedBackend(t)
	ctx := context.Background()
	addr := insertItem(t, b, types.Item{Name: "Milk", Description: "Oat", Category: types.CategoryDiary, Quantity: 1})
	insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood, Quantity: 1})

	n, err := b.Update(ctx, addr, types.NewValues().PutInt(types.ColumnQuantity, 5), "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	items := listItems(t, b, addr, types.Query{})
	require.Len(t, items, 1)
	assert.Equal(t, types.Item{ID: 1, Name: "Milk", Description: "Oat", Category: types.CategoryDiary, Quantity: 5}, items[0])

	other := listItems(t, b, types.RecordAddress(2), types.Query{})
	assert.Equal(t, int64(1), other[0].Quantity, "other rows untouched")
}

func TestItems_UpdateCollectionWithSelection(t *testing.T) {
	b, _ := attachedBackend(t)
	insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood, Quantity: 1})
	insertItem(t, b, types.Item{Name: "Milk", Category: types.CategoryDiary, Quantity: 1})
	insertItem(t, b, types.Item{Name: "Apples", Category: types.CategoryFood, Quantity: 1})

	n, err := b.Update(context.Background(), types.CollectionAddress,
		types.NewValues().PutInt(types.ColumnQuantity, 3), "category = ?", int64(types.CategoryFood))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	food := listItems(t, b, types.CollectionAddress, types.Query{Selection: "quantity = 3"})
	assert.Len(t, food, 2)
}

func TestItems_UpdateRecordIgnoresSelection(t *testing.T) {
	b, _ := attachedBackend(t)
	addr := insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood})

	n, err := b.Update(context.Background(), addr, types.NewValues().PutString(types.ColumnName, "Rye"), "1 = 0")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestItems_UpdateValidation(t *testing.T) {
	tests := []struct {
		name    string
		values  types.Values
		wantErr error
	}{
		{"category out of range", types.NewValues().PutInt(types.ColumnCategory, 3), types.ErrInvalidCategory},
		{"null category", types.NewValues().PutNull(types.ColumnCategory), types.ErrInvalidCategory},
		{"negative quantity", types.NewValues().PutInt(types.ColumnQuantity, -1), types.ErrInvalidQuantity},
		{"null name", types.NewValues().PutNull(types.ColumnName), types.ErrMissingName},
		{"id", types.NewValues().PutInt(types.ColumnID, 5), types.ErrImmutableID},
		{"unknown column", types.NewValues().PutInt("aisle", 5), types.ErrUnknownColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := attachedBackend(t)
			addr := insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood, Quantity: 1})

			_, err := b.Update(context.Background(), addr, tt.values, "")
			require.ErrorIs(t, err, tt.wantErr)

			items := listItems(t, b, addr, types.Query{})
			assert.Equal(t, types.Item{ID: 1, Name: "Bread", Category: types.CategoryFood, Quantity: 1}, items[0])
		})
	}
}

func TestItems_UpdateEmptyPayload(t *testing.T) {
	b, _ := attachedBackend(t)
	addr := insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood})

	notified := 0
	stop, err := b.Observe(types.CollectionAddress, true, func(types.Address) { notified++ })
	require.NoError(t, err)
	defer stop()

	n, err := b.Update(context.Background(), addr, types.NewValues(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Zero(t, notified)
}

func TestItems_UpdateDescriptionToNull(t *testing.T) {
	b, _ := attachedBackend(t)
	addr := insertItem(t, b, types.Item{Name: "Bread", Description: "Rye", Category: types.CategoryFood})

	_, err := b.Update(context.Background(), addr, types.NewValues().PutNull(types.ColumnDescription), "")
	require.NoError(t, err)
	assert.Equal(t, "", listItems(t, b, addr, types.Query{})[0].Description)
}

func TestItems_Delete(t *testing.T) {
	b, _ := attachedBackend(t)
	ctx := context.Background()
	addr := insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood})

	n, err := b.Delete(ctx, addr, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = b.Delete(ctx, addr, "")
	require.NoError(t, err, "second delete is not a failure")
	assert.Equal(t, int64(0), n)
}

func TestItems_DeleteAll(t *testing.T) {
	b, _ := attachedBackend(t)
	insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood})
	insertItem(t, b, types.Item{Name: "Milk", Category: types.CategoryDiary})

	n, err := b.Delete(context.Background(), types.CollectionAddress, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Empty(t, listItems(t, b, types.CollectionAddress, types.Query{}))
}

func TestItems_DeleteWithSelection(t *testing.T) {
	b, _ := attachedBackend(t)
	insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood})
	insertItem(t, b, types.Item{Name: "Milk", Category: types.CategoryDiary})

	n, err := b.Delete(context.Background(), types.CollectionAddress, "name = ?", "Milk")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	items := listItems(t, b, types.CollectionAddress, types.Query{})
	require.Len(t, items, 1)
	assert.Equal(t, "Bread", items[0].Name)
}

func TestItems_IDsNotReused(t *testing.T) {
	b, _ := attachedBackend(t)
	insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood})
	second := insertItem(t, b, types.Item{Name: "Milk", Category: types.CategoryDiary})

	_, err := b.Delete(context.Background(), second, "")
	require.NoError(t, err)

	third := insertItem(t, b, types.Item{Name: "Tea", Category: types.CategoryOther})
	assert.Equal(t, types.RecordAddress(3), third)
}

func TestItems_TypeOf(t *testing.T) {
	b := NewBackend()

	list, err := b.TypeOf(types.CollectionAddress)
	require.NoError(t, err)
	item, err := b.TypeOf(types.RecordAddress(7))
	require.NoError(t, err)

	assert.Equal(t, types.ContentListType, list)
	assert.Equal(t, types.ContentItemType, item)
	assert.NotEqual(t, list, item)
}

func TestItems_Notifications(t *testing.T) {
	b, _ := attachedBackend(t)
	ctx := context.Background()
	first := insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood})

	var collection, record []types.Address
	stopCollection, err := b.Observe(types.CollectionAddress, true, func(a types.Address) { collection = append(collection, a) })
	require.NoError(t, err)
	defer stopCollection()
	stopRecord, err := b.Observe(first, false, func(a types.Address) { record = append(record, a) })
	require.NoError(t, err)
	defer stopRecord()

	second := insertItem(t, b, types.Item{Name: "Milk", Category: types.CategoryDiary})
	_, err = b.Update(ctx, first, types.NewValues().PutInt(types.ColumnQuantity, 2), "")
	require.NoError(t, err)
	_, err = b.Update(ctx, second, types.NewValues().PutInt(types.ColumnQuantity, 2), "")
	require.NoError(t, err)
	_, err = b.Delete(ctx, types.RecordAddress(99), "")
	require.NoError(t, err)

	assert.Equal(t, []types.Address{types.CollectionAddress, first, second}, collection)
	assert.Equal(t, []types.Address{types.CollectionAddress, first}, record,
		"record observers see collection changes and their own record")
}

func TestItems_ObserverWithoutDescendants(t *testing.T) {
	b, _ := attachedBackend(t)
	addr := insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood})

	count := 0
	stop, err := b.Observe(types.CollectionAddress, false, func(types.Address) { count++ })
	require.NoError(t, err)

	_, err = b.Update(context.Background(), addr, types.NewValues().PutInt(types.ColumnQuantity, 2), "")
	require.NoError(t, err)
	assert.Zero(t, count)

	insertItem(t, b, types.Item{Name: "Milk", Category: types.CategoryDiary})
	assert.Equal(t, 1, count)

	stop()
	insertItem(t, b, types.Item{Name: "Tea", Category: types.CategoryOther})
	assert.Equal(t, 1, count, "no delivery after unregister")
}

func TestItems_ObserverMayQuery(t *testing.T) {
	b, _ := attachedBackend(t)

	var seen [][]types.Item
	stop, err := b.Observe(types.CollectionAddress, true, func(types.Address) {
		seen = append(seen, listItems(t, b, types.CollectionAddress, types.Query{}))
	})
	require.NoError(t, err)
	defer stop()

	insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood})
	insertItem(t, b, types.Item{Name: "Milk", Category: types.CategoryDiary})

	require.Len(t, seen, 2)
	assert.Len(t, seen[0], 1)
	assert.Len(t, seen[1], 2)
}

func TestCursor_Changes(t *testing.T) {
	b, _ := attachedBackend(t)
	addr := insertItem(t, b, types.Item{Name: "Bread", Category: types.CategoryFood})

	c, err := b.Query(context.Background(), types.CollectionAddress, types.Query{})
	require.NoError(t, err)
	defer c.Close()

	select {
	case <-c.Changes():
		t.Fatal("no change yet")
	default:
	}

	_, err = b.Update(context.Background(), addr, types.NewValues().PutInt(types.ColumnQuantity, 4), "")
	require.NoError(t, err)

	select {
	case <-c.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected change signal")
	}
}

func TestCursor_CloseUnregisters(t *testing.T) {
	b, _ := attachedBackend(t)
	hub, err := b.observers()
	require.NoError(t, err)

	c, err := b.Query(context.Background(), types.CollectionAddress, types.Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Len())

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "Close is idempotent")
	assert.Equal(t, 0, hub.Len())
}

func TestItems_ConcurrentInserts(t *testing.T) {
	b, _ := attachedBackend(t)
	const workers, perWorker = 4, 10

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := b.Insert(context.Background(), types.CollectionAddress,
					types.ItemValues(types.Item{Name: "Item", Category: types.CategoryOther, Quantity: int64(i)}))
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Len(t, listItems(t, b, types.CollectionAddress, types.Query{}), workers*perWorker)
}
