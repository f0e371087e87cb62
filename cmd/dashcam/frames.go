package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pi3123/SmartDashcam/pkg/cli"
	"github.com/pi3123/SmartDashcam/pkg/recording/recovery"
	"github.com/pi3123/SmartDashcam/pkg/recording/storage"
)

var framesFlags struct {
	format string
	limit  int
}

var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "List the frames on disk",
	Long: `List the frame artifacts in the frames directory, oldest first, exactly as
the recorder would index them on startup. Nothing is deleted.

Examples:
  # Show the 20 newest frames
  dashcam frames --limit 20

  # Dump every frame as CSV
  dashcam frames --limit 0 --format csv`,
	RunE: listFrames,
}

func init() {
	rootCmd.AddCommand(framesCmd)

	framesCmd.Flags().StringVar(&framesFlags.format, "format", "text", "output format: text, json, csv")
	framesCmd.Flags().IntVar(&framesFlags.limit, "limit", 50, "show only the newest N frames (0 for all)")
}

func listFrames(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	formatter, err := cli.NewFormatter(cli.OutputFormat(framesFlags.format))
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	store, err := storage.NewFileStore(storage.FileConfigFrom(&cfg.Storage))
	if err != nil {
		return cli.NewCommandError("frames", err)
	}
	result, err := recovery.NewScanner(store).Scan(cmd.Context())
	if err != nil {
		return cli.NewCommandError("frames", err)
	}

	records := result.Records
	if framesFlags.limit > 0 && len(records) > framesFlags.limit {
		records = records[len(records)-framesFlags.limit:]
	}
	if err := formatter.FormatTo(cmd.OutOrStdout(), newFramesTable(records)); err != nil {
		return err
	}

	if framesFlags.format == string(cli.FormatText) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%d frames on disk (capacity %d), %d unrecognized files, %d duplicates\n",
			len(result.Records), cfg.RetentionCapacity(), len(result.Skipped), len(result.Duplicates))
	}
	return nil
}
