// Package cli implements the shoplist command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/shoplist/internal/logger"
	"github.com/mesh-intelligence/shoplist/internal/paths"
	store "github.com/mesh-intelligence/shoplist/pkg/sqlite"
	"github.com/mesh-intelligence/shoplist/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// serviceName tags every log line.
const serviceName = "shoplist"

// app holds global flag values and the per-invocation state shared by
// subcommands.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string

	cfg *viper.Viper
	log *zap.Logger
}

// NewRootCmd creates the top-level "shoplist" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "shoplist",
		Short: "Keep a shopping list in a local SQLite file",
		Long: "shoplist stores shopping-list items (name, description, category, quantity)\n" +
			"in a local SQLite database addressed by content:// URIs.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.prepare,
		PersistentPostRun: func(*cobra.Command, []string) { _ = a.log.Sync() },
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return userError(err)
	})

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newClearCmd(a),
		newTypeCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newSeedCmd(a),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "shoplist:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// prepare loads config.yaml and builds the logger before any subcommand runs.
func (a *app) prepare(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.configDir = configDir

	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := a.logLevel
	if level == "" {
		level = cfg.GetString(cfgKeyLogLevel)
	}
	log, err := logger.New(serviceName, level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.log = log
	return nil
}

// config returns the backend configuration for this invocation.
func (a *app) config() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	return types.Config{
		Backend: a.cfg.GetString(cfgKeyBackend),
		DataDir: dataDir,
	}, nil
}

// withRepo attaches the backend, runs fn and detaches.
func (a *app) withRepo(cmd *cobra.Command, fn func(ctx context.Context, repo types.Repository) error) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}

	provider := store.NewBackend(store.WithLogger(a.log))
	if err := provider.Attach(cfg); err != nil {
		if errors.Is(err, types.ErrBackendEmpty) || errors.Is(err, types.ErrBackendUnknown) {
			return userError(fmt.Errorf("backend %q: %w", cfg.Backend, err))
		}
		return fmt.Errorf("attach backend: %w", err)
	}

	err = fn(cmd.Context(), provider)
	if detachErr := provider.Detach(); err == nil && detachErr != nil {
		err = fmt.Errorf("detach backend: %w", detachErr)
	}
	return err
}

// parseTarget accepts a numeric id or a full address.
func parseTarget(arg string) (types.Address, error) {
	arg = strings.TrimSpace(arg)
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if id < 0 {
			return "", userError(fmt.Errorf("invalid id %d", id))
		}
		return types.RecordAddress(id), nil
	}
	return types.Address(arg), nil
}

// exitError carries a process exit code with the error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError marks err as caused by the caller's input.
func userError(err error) error {
	return &exitError{code: exitUserError, err: err}
}

// exitCode maps an error to the process exit code. Validation and address
// errors are the caller's fault; everything else is a system error.
func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, types.ErrValidation), errors.Is(err, types.ErrInvalidAddress):
		return exitUserError
	default:
		return exitSysError
	}
}

// exactArgs is cobra.ExactArgs reporting a user error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return userError(err)
		}
		return nil
	}
}
