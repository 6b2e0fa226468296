// Package types defines the shopping-list contract: the items table and its
// columns, the category domain, item addresses and MIME markers, the typed
// Item record and Values write payload, the Repository and Provider
// interfaces, and the standard error values.
package types
