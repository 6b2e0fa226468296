package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/shoplist/pkg/sqlite"
	"github.com/mesh-intelligence/shoplist/pkg/types"
)

func TestNewBackend(t *testing.T) {
	ctx := context.Background()
	p := sqlite.NewBackend(sqlite.WithLogger(zap.NewNop()))
	require.NoError(t, p.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer p.Detach()

	addr, err := p.Insert(ctx, types.CollectionAddress, types.ItemValues(types.Item{
		Name: "Milk", Category: types.CategoryFood, Quantity: 2,
	}))
	require.NoError(t, err)
	assert.Equal(t, types.RecordAddress(1), addr)

	c, err := p.Query(ctx, addr, types.Query{})
	require.NoError(t, err)
	items, err := types.Collect(c)
	require.NoError(t, err)
	assert.Equal(t, []types.Item{{ID: 1, Name: "Milk", Category: types.CategoryFood, Quantity: 2}}, items)
}
