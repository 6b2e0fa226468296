package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shoplist/internal/paths"
	"github.com/mesh-intelligence/shoplist/internal/sqlite"
	"github.com/mesh-intelligence/shoplist/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize shoplist storage",
		Long: `Create the configuration and data directories, then create the database.
A --data-dir given to init is recorded in config.yaml.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.dataDir != "" {
				dataDir, err := filepath.Abs(a.dataDir)
				if err != nil {
					return fmt.Errorf("resolve data dir: %w", err)
				}
				if err := writeConfig(paths.ConfigFile(a.configDir), configFile{
					Backend:  a.cfg.GetString(cfgKeyBackend),
					DataDir:  dataDir,
					LogLevel: a.cfg.GetString(cfgKeyLogLevel),
				}); err != nil {
					return err
				}
			}

			cfg, err := a.config()
			if err != nil {
				return err
			}
			if err := a.withRepo(cmd, func(context.Context, types.Repository) error { return nil }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "shoplist initialized in %s\n", cfg.DataDir)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every item to a JSONL file",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepo(cmd, func(ctx context.Context, repo types.Repository) error {
				n, err := sqlite.Export(ctx, repo, args[0])
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{"exported": n, "file": args[0]})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d item(s) to %s\n", n, args[0])
				return nil
			})
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the items of a JSONL file",
		Long: `Import inserts every record of a JSONL file as a new item. Records that
are malformed or fail validation are counted and skipped.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepo(cmd, func(ctx context.Context, repo types.Repository) error {
				res, err := sqlite.Import(ctx, repo, args[0])
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd.OutOrStdout(), res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d item(s), rejected %d\n", res.Imported, res.Rejected)
				return nil
			})
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample items",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepo(cmd, func(ctx context.Context, repo types.Repository) error {
				created, err := sqlite.SeedSampleItems(ctx, repo)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]any{"created": created})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d sample item(s)\n", len(created))
				return nil
			})
		},
	}
}
