package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pi3123/SmartDashcam/pkg/cli"
	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/recording/recorder"
	"github.com/pi3123/SmartDashcam/pkg/server"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/health"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/logging"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/metrics"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	source        string
	noWatch       bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start recording",
	Long: `Start the recorder and, unless disabled, the admin HTTP server.

On startup the retention index is rebuilt from the frames already on disk,
so a restart keeps the history of the previous run. Capture continues until
SIGINT or SIGTERM, or until the camera fails.

Examples:
  # Record with default config
  dashcam run

  # Record from the synthetic test pattern
  dashcam run --source pattern

  # Override the admin listen address
  dashcam run --listen 0.0.0.0:8090

  # Validate config without recording
  dashcam run --dry-run`,
	RunE: runRecorder,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override admin listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.source, "source", "", "override camera source (ffmpeg, pattern)")
	runCmd.Flags().BoolVar(&runFlags.noWatch, "no-watch", false, "do not reload the config file on change")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without recording")
}

func runRecorder(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.source != "" {
		cfg.Camera.Source = runFlags.source
	}
	if runFlags.logLevel != "" {
		if err := logger.SetLevel(runFlags.logLevel); err != nil {
			return cli.NewConfigError("log-level", err.Error())
		}
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	printBanner(cmd, cfg)

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.Tracing.Timeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	rec, err := recorder.New(cfg, recorder.Deps{Metrics: collector, Tracer: tracer})
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Camera.StopTimeout+cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := rec.Close(closeCtx); err != nil {
			slog.Error("recorder shutdown failed", "error", err)
		}
	}()

	if err := rec.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	status := rec.Status()
	fmt.Fprintf(out, "✓ Recording from %s (%d of %d frames retained)\n", status.Source, status.Buffered, status.Capacity)

	srvErr := make(chan error, 1)
	if cfg.Server.Enabled {
		checker := health.New(0)
		rec.RegisterHealthChecks(checker)

		srv := server.NewServer(&cfg.Server, rec, server.Options{
			Checker:              checker,
			Metrics:              collector,
			MetricsPath:          cfg.Telemetry.Metrics.Path,
			DefaultWindowMinutes: cfg.Export.DefaultWindowMinutes,
			Version:              Version,
			GitCommit:            GitCommit,
			BuildDate:            BuildDate,
		})
		go func() {
			srvErr <- srv.Start(ctx)
		}()
		fmt.Fprintf(out, "✓ Admin API on http://%s/api/v1/status\n", cfg.Server.ListenAddress)
	}

	if path := config.LoadedFrom(); !runFlags.noWatch && path != "" {
		startConfigWatcher(ctx, path, logger)
	}

	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	select {
	case <-ctx.Done():
		fmt.Fprintln(out, "\nShutting down...")
	case <-rec.Done():
		err := rec.Err()
		if err == nil {
			err = errors.New("capture stopped unexpectedly")
		}
		return cli.NewCommandError("run", err)
	case err := <-srvErr:
		if err != nil {
			return cli.NewCommandError("run", err)
		}
	}

	fmt.Fprintln(out, "✓ Recorder stopped")
	return nil
}

// startConfigWatcher applies runtime-adjustable settings when the config
// file changes. Only the log level is adjustable at runtime.
func startConfigWatcher(ctx context.Context, path string, logger *logging.Logger) {
	watcher, err := config.NewWatcher(path, 0, nil)
	if err != nil {
		slog.Warn("config hot reload disabled", "error", err)
		return
	}

	go func() {
		defer watcher.Stop()
		err := watcher.Watch(ctx, func(cfg *config.Config) {
			if err := logger.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
				slog.Warn("ignoring invalid log level", "level", cfg.Telemetry.Logging.Level, "error", err)
			}
		})
		if err != nil {
			slog.Warn("config watcher stopped", "error", err)
		}
	}()
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "SmartDashcam v%s\n", Version)
	fmt.Fprintf(out, "✓ Configuration loaded (%s)\n", configSource())

	slog.Debug("recorder configuration",
		"source", cfg.Camera.Source,
		"fps", cfg.Camera.FPS,
		"retention_minutes", cfg.Retention.MaxDurationMinutes,
		"capacity", cfg.RetentionCapacity(),
		"frames_dir", cfg.Storage.FramesDir,
		"output_dir", cfg.Export.OutputDir,
	)
}

func configSource() string {
	if path := config.LoadedFrom(); path != "" {
		return path
	}
	return "defaults"
}
