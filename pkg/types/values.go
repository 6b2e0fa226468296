package types

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Values is a write payload keyed by column. A key that is present with a nil
// value stores NULL; an absent key leaves the column untouched on update.
type Values map[string]any

// NewValues returns an empty payload.
func NewValues() Values {
	return make(Values)
}

// ItemValues builds a full payload from it. The id is never included; it is
// assigned by storage.
func ItemValues(it Item) Values {
	return Values{
		ColumnName:        it.Name,
		ColumnDescription: it.Description,
		ColumnCategory:    int64(it.Category),
		ColumnQuantity:    it.Quantity,
	}
}

// PutString sets column to a text value.
func (v Values) PutString(column, s string) Values {
	v[column] = s
	return v
}

// PutInt sets column to an integer value.
func (v Values) PutInt(column string, n int64) Values {
	v[column] = n
	return v
}

// PutNull sets column to NULL.
func (v Values) PutNull(column string) Values {
	v[column] = nil
	return v
}

// Has reports whether column is present, even when its value is NULL.
func (v Values) Has(column string) bool {
	_, ok := v[column]
	return ok
}

// Len returns the number of columns in the payload.
func (v Values) Len() int {
	return len(v)
}

// Columns returns the payload columns in sorted order.
func (v Values) Columns() []string {
	cols := make([]string, 0, len(v))
	for c := range v {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// AsString returns the text value of column. ok is false when the column is
// absent, NULL, or not text.
func (v Values) AsString(column string) (s string, ok bool) {
	s, ok = v[column].(string)
	return s, ok
}

// AsInt returns the integer value of column. Go integer kinds are accepted,
// as are integral floats and decimal strings. ok is false when the column is absent, NULL, or
// holds anything else.
func (v Values) AsInt(column string) (n int64, ok bool) {
	switch x := v[column].(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case Category:
		return int64(x), true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
