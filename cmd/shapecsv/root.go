package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shapestone/shape-csvchunk/internal/config"
	"github.com/shapestone/shape-csvchunk/internal/logging"
)

// app holds what the persistent flags resolve to.
type app struct {
	cfgFile string
	envFile string
	verbose bool
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "shapecsv",
		Short: "Incremental CSV parser with configurable dialects",
		Long: `shapecsv parses CSV whose quote character, field separators and line
separators are configurable, including multi-character ones. Input is read
in chunks and parsed incrementally; malformed quoting produces warnings
instead of errors.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newParseCmd(a),
		newTokensCmd(a),
		newSniffCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newPruneCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// load reads the dotenv file, the configuration and sets up logging on
// stderr so stdout stays reserved for command output.
func (a *app) load(cmd *cobra.Command) error {
	if a.envFile != "" {
		if err := godotenv.Overload(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.LoadWithEnvOverrides(a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg

	slog.SetDefault(logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format))
	slog.Debug("configuration loaded", "file", a.cfgFile, "store", cfg.Store.Driver)
	return nil
}
