package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pi3123/SmartDashcam/pkg/cli"
)

var clearFlags struct {
	remote string
	yes    bool
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all retained frames",
	Long: `Delete every retained frame artifact. Exports already written are kept.

With --remote the running recorder clears its history and keeps capturing.
Without it the frames on disk are deleted directly.

Examples:
  dashcam clear --remote 127.0.0.1:8090
  dashcam clear --yes`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().StringVar(&clearFlags.remote, "remote", "", "admin address of a running recorder")
	clearCmd.Flags().BoolVarP(&clearFlags.yes, "yes", "y", false, "do not ask for confirmation")
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !clearFlags.yes && !confirm(cmd, "Delete all retained frames?") {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
		return nil
	}

	ctx := cmd.Context()
	if clearFlags.remote != "" {
		client := newAdminClient(clearFlags.remote, 30*time.Second)
		if err := client.post(ctx, "/api/v1/clear", nil, nil); err != nil {
			return cli.NewCommandError("clear", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Recorder history cleared")
		return nil
	}

	rec, err := openOffline(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("clear", err)
	}
	defer closeOffline(ctx, rec)

	n := len(rec.Frames())
	if err := rec.Clear(ctx); err != nil {
		return cli.NewCommandError("clear", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d frames\n", n)
	return nil
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
