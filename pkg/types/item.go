package types

import (
	"fmt"
	"strconv"
	"strings"
)

// TableItems is the name of the single table holding shopping-list items.
const TableItems = "items"

// Column identifiers of the items table.
const (
	ColumnID          = "id"
	ColumnName        = "name"
	ColumnDescription = "description"
	ColumnCategory    = "category"
	ColumnQuantity    = "quantity"
)

// AllColumns lists the item columns in table order.
var AllColumns = []string{
	ColumnID,
	ColumnName,
	ColumnDescription,
	ColumnCategory,
	ColumnQuantity,
}

// knownColumns is the set of recognized column identifiers.
var knownColumns = map[string]bool{
	ColumnID:          true,
	ColumnName:        true,
	ColumnDescription: true,
	ColumnCategory:    true,
	ColumnQuantity:    true,
}

// IsKnownColumn reports whether name is one of the item columns.
func IsKnownColumn(name string) bool {
	return knownColumns[name]
}

// Category classifies an item.
type Category int64

// Item categories.
const (
	CategoryOther Category = 0
	CategoryFood  Category = 1
	CategoryDiary Category = 2
)

var categoryNames = map[Category]string{
	CategoryOther: "other",
	CategoryFood:  "food",
	CategoryDiary: "diary",
}

// IsValidCategory returns true iff v is one of the category values.
func IsValidCategory(v int64) bool {
	switch Category(v) {
	case CategoryOther, CategoryFood, CategoryDiary:
		return true
	}
	return false
}

// String returns the lower-case category name, or the number for values
// outside the domain.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return strconv.FormatInt(int64(c), 10)
}

// ParseCategory accepts a category name (case-insensitive) or its numeric
// value. Returns ErrInvalidCategory for anything else.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for c, name := range categoryNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || !IsValidCategory(n) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return Category(n), nil
}

// Item is one row of the items table.
type Item struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"` // NULL reads as "".
	Category    Category `json:"category"`
	Quantity    int64    `json:"quantity"`
}
