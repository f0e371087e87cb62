/*
Package cli provides command-line helpers for the dashcam command.

Output Formatting:

Listings (frames, export jobs) implement Table and render as aligned text,
JSON, or CSV:

	formatter, err := cli.NewFormatter(cli.FormatText)
	if err != nil {
		return err
	}
	return formatter.FormatTo(os.Stdout, jobsTable(jobs))

Progress Reporting:

Exports report per-frame progress through a ProgressReporter, which the
export pipeline accepts directly:

	progress := cli.NewProgressReporter(os.Stderr, "frames")
	result, err := rec.Export(ctx, req, export.WithProgress(progress))

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Exit Codes:

ExitCode maps command errors to process exit codes so scripts can tell a
configuration problem from an export that had nothing to export.
*/
package cli
