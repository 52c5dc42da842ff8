package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"focusflow/internal/app"
	"focusflow/internal/config"
	"focusflow/internal/logging"
	"focusflow/internal/storage"

	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	backend    string
	storePath  string
	now        string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "focusctl",
		Short: "Inspect and drive the FocusFlow core",
		Long: `focusctl opens the same persisted state as the FocusFlow desktop app.

It prints insights and rewards, moves preferences and stored items in and
out, and can simulate timer and environment events against the engines.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default: user config dir)")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "override store.backend (memory, file, sqlite)")
	root.PersistentFlags().StringVar(&flags.storePath, "store", "", "override store.path")
	root.PersistentFlags().StringVar(&flags.now, "now", "", "pretend the current time is this RFC 3339 timestamp")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newInsightsCommand(flags),
		newRewardsCommand(flags),
		newPrefsCommand(flags),
		newStoreCommand(flags),
		newSimulateCommand(flags),
		newShortcutsCommand(flags),
		newAutostartCommand(),
	)
	return root
}

// loadConfig reads the config file and applies flag overrides.
func (flags *globalFlags) loadConfig() (config.Config, error) {
	path := flags.configPath
	if path == "" {
		resolved, err := storage.ResolvePath("focusflow", "config.yaml")
		if err != nil {
			return config.Config{}, err
		}
		path = resolved
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if flags.backend != "" {
		cfg.Store.Backend = flags.backend
	}
	if flags.storePath != "" {
		cfg.Store.Path = flags.storePath
	}
	if flags.verbose {
		cfg.Log.Level = "debug"
	} else {
		cfg.Log.Level = "warn"
	}
	return cfg, nil
}

// withCore opens the core, runs fn and closes it again.
func (flags *globalFlags) withCore(fn func(core *app.Core) error) error {
	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Backend == config.BackendFyne {
		return errors.New("the fyne store backend is only available inside the desktop app")
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	var opts []app.Option
	if flags.now != "" {
		fixed, err := time.Parse(time.RFC3339, flags.now)
		if err != nil {
			return fmt.Errorf("parse --now: %w", err)
		}
		opts = append(opts, app.WithClock(func() time.Time { return fixed }))
	}

	core, err := app.Open(cfg, logger, nil, opts...)
	if err != nil {
		return err
	}
	runErr := fn(core)
	if closeErr := core.Close(); closeErr != nil {
		return errors.Join(runErr, closeErr)
	}
	return runErr
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to a file, or stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
