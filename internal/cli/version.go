package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release version, overridable with -ldflags "-X".
var Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/shoplist"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the shoplist version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "shoplist v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
