package sqlite

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/shoplist/pkg/types"
)

// validateInsert checks a full payload. name and category are required.
func validateInsert(v types.Values) error {
	return validateValues(v, true)
}

// validateUpdate checks only the columns present in v.
func validateUpdate(v types.Values) error {
	return validateValues(v, false)
}

func validateValues(v types.Values, full bool) error {
	for _, col := range v.Columns() {
		if !types.IsKnownColumn(col) {
			return fmt.Errorf("%w: %q", types.ErrUnknownColumn, col)
		}
	}
	if v.Has(types.ColumnID) {
		return types.ErrImmutableID
	}

	if full || v.Has(types.ColumnName) {
		if _, ok := v.AsString(types.ColumnName); !ok {
			return types.ErrMissingName
		}
	}

	if full || v.Has(types.ColumnCategory) {
		n, ok := v.AsInt(types.ColumnCategory)
		if !ok || !types.IsValidCategory(n) {
			return types.ErrInvalidCategory
		}
	}

	if v.Has(types.ColumnQuantity) {
		n, ok := v.AsInt(types.ColumnQuantity)
		if !ok || n < 0 {
			return types.ErrInvalidQuantity
		}
	}

	if v.Has(types.ColumnDescription) && v[types.ColumnDescription] != nil {
		if _, ok := v.AsString(types.ColumnDescription); !ok {
			return types.ErrInvalidDescription
		}
	}
	return nil
}

// bindValues converts a validated payload into columns and driver arguments
// in table column order.
func bindValues(v types.Values) ([]string, []any) {
	var cols []string
	var args []any
	for _, col := range types.AllColumns {
		if !v.Has(col) {
			continue
		}
		cols = append(cols, col)
		switch col {
		case types.ColumnCategory, types.ColumnQuantity:
			n, _ := v.AsInt(col)
			args = append(args, n)
		case types.ColumnDescription:
			if s, ok := v.AsString(col); ok {
				args = append(args, s)
			} else {
				args = append(args, nil)
			}
		default:
			s, _ := v.AsString(col)
			args = append(args, s)
		}
	}
	return cols, args
}

// projectionColumns checks a projection against the item columns. An empty
// projection selects every column.
func projectionColumns(projection []string) ([]string, error) {
	if len(projection) == 0 {
		return types.AllColumns, nil
	}
	cols := make([]string, 0, len(projection))
	for _, col := range projection {
		if !types.IsKnownColumn(col) {
			return nil, fmt.Errorf("%w: %q", types.ErrUnknownColumn, col)
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// orderByClause checks a sort order of the form "col [ASC|DESC], ..." and
// returns it normalized. Anything else is rejected, so caller text never
// reaches the ORDER BY clause unchecked.
func orderByClause(sortOrder string) (string, error) {
	if strings.TrimSpace(sortOrder) == "" {
		return "", nil
	}
	terms := strings.Split(sortOrder, ",")
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		fields := strings.Fields(term)
		if len(fields) == 0 || len(fields) > 2 {
			return "", fmt.Errorf("%w: %q", types.ErrInvalidSortOrder, sortOrder)
		}
		col := fields[0]
		if !types.IsKnownColumn(col) {
			return "", fmt.Errorf("%w: %q", types.ErrUnknownColumn, col)
		}
		dir := "ASC"
		if len(fields) == 2 {
			dir = strings.ToUpper(fields[1])
			if dir != "ASC" && dir != "DESC" {
				return "", fmt.Errorf("%w: %q", types.ErrInvalidSortOrder, sortOrder)
			}
		}
		out = append(out, col+" "+dir)
	}
	return strings.Join(out, ", "), nil
}
