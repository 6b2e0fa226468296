// Command shoplist manages a shopping list stored in a local SQLite file.
package main

import (
	"os"

	"github.com/mesh-intelligence/shoplist/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
