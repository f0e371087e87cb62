package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pi3123/SmartDashcam/pkg/cli"
	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dashcam",
	Short: "SmartDashcam - rolling video recorder",
	Long: `SmartDashcam continuously captures camera frames into a bounded history on
disk, evicting the oldest frames as new ones arrive, and exports the last
N minutes of that history as a video file on demand.

Without a config file the built-in defaults are used; every option can
also be set through DASHCAM_* environment variables.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path (YAML, or TOML by extension)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration and installs the process logger. A
// missing default config file falls back to defaults; an explicitly given
// one must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, *logging.Logger, error) {
	path := cfgFile
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
		path = ""
	}

	if err := config.Initialize(path); err != nil {
		return nil, nil, cli.NewConfigError("", err.Error())
	}
	cfg := config.GetConfig()

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return nil, nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	if verbose {
		_ = logger.SetLevel("debug")
	}
	logger.Install()

	return cfg, logger, nil
}
