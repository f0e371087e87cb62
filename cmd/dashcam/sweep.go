package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi3123/SmartDashcam/pkg/cli"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete orphaned frame artifacts once",
	Long: `Delete artifacts older than the oldest retained frame, the same sweep the
recorder runs on retention.sweep_schedule.

Run it while the recorder is stopped; a running recorder sweeps on its own.`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rec, err := openOffline(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("sweep", err)
	}
	defer closeOffline(ctx, rec)

	removed, err := rec.Sweep(ctx)
	if err != nil {
		return cli.NewCommandError("sweep", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d orphaned artifacts\n", removed)
	return nil
}
