package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/shoplist/pkg/types"
)

// sampleItems are inserted by SeedSampleItems.
var sampleItems = []types.Item{
	{Name: "Bread", Description: "Whole wheat loaf", Category: types.CategoryFood, Quantity: 1},
	{Name: "Milk", Description: "Two litres, semi-skimmed", Category: types.CategoryDiary, Quantity: 2},
	{Name: "Cheddar", Category: types.CategoryDiary, Quantity: 1},
	{Name: "Apples", Description: "Green", Category: types.CategoryFood, Quantity: 6},
	{Name: "Dish soap", Category: types.CategoryOther, Quantity: 1},
}

// SeedSampleItems inserts a fixed set of sample items through repo and
// returns their record addresses in insertion order.
func SeedSampleItems(ctx context.Context, repo types.Repository) ([]types.Address, error) {
	created := make([]types.Address, 0, len(sampleItems))
	for _, it := range sampleItems {
		addr, err := repo.Insert(ctx, types.CollectionAddress, types.ItemValues(it))
		if err != nil {
			return created, fmt.Errorf("seeding %q: %w", it.Name, err)
		}
		created = append(created, addr)
	}
	return created, nil
}
