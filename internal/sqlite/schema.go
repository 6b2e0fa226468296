// Package sqlite implements the SQLite storage backend for shopping-list items.
package sqlite

// Database file and version. The version is stored in PRAGMA user_version.
const (
	DatabaseName    = "shopping_list.db"
	DatabaseVersion = 1
)

// createItems is the only schema statement at version 1.
const createItems = `CREATE TABLE items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT,
    category INTEGER NOT NULL,
    quantity INTEGER NOT NULL DEFAULT 0
);`

// schemaDDL lists the statements run on first open.
var schemaDDL = []string{
	createItems,
}
