package types

import (
	"strconv"
	"strings"
)

// Address components. A collection address names every item; a record
// address appends the item identifier.
const (
	Scheme    = "content"
	Authority = "com.mesh-intelligence.shoplist"
	PathItems = "items"
)

// Address names either the item collection or a single item record.
type Address string

// CollectionAddress names the whole items table.
const CollectionAddress Address = Scheme + "://" + Authority + "/" + PathItems

// MIME markers returned by Repository.TypeOf.
const (
	ContentListType = "vnd.android.cursor.dir/" + Authority + "/" + PathItems
	ContentItemType = "vnd.android.cursor.item/" + Authority + "/" + PathItems
)

// RecordAddress returns the address of the item with the given identifier.
func RecordAddress(id int64) Address {
	return CollectionAddress + Address("/"+strconv.FormatInt(id, 10))
}

// WithID appends id as a trailing path segment.
func (a Address) WithID(id int64) Address {
	return a + Address("/"+strconv.FormatInt(id, 10))
}

// ID parses the trailing path segment as a non-negative identifier.
// The second result is false when the last segment is not a number.
func (a Address) ID() (int64, bool) {
	s := string(a)
	i := strings.LastIndexByte(s, '/')
	if i < 0 || i == len(s)-1 {
		return 0, false
	}
	id, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func (a Address) String() string {
	return string(a)
}
