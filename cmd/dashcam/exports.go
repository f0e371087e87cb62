package main

import (
	"github.com/spf13/cobra"

	"github.com/pi3123/SmartDashcam/pkg/cli"
	"github.com/pi3123/SmartDashcam/pkg/recording/catalog"
)

var exportsFlags struct {
	format string
	limit  int
}

var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "List past exports",
	Long: `List export jobs recorded in the export catalog, newest first, including
failed and cancelled ones.

Examples:
  dashcam exports
  dashcam exports --limit 5 --format json`,
	RunE: listExports,
}

func init() {
	rootCmd.AddCommand(exportsCmd)

	exportsCmd.Flags().StringVar(&exportsFlags.format, "format", "text", "output format: text, json, csv")
	exportsCmd.Flags().IntVar(&exportsFlags.limit, "limit", 20, "max results (0 for all)")
}

func listExports(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	formatter, err := cli.NewFormatter(cli.OutputFormat(exportsFlags.format))
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	if cfg.Export.CatalogPath == "" {
		return cli.NewConfigError("export.catalog_path", "no export catalog configured")
	}

	cat, err := catalog.NewSQLiteCatalog(cfg.Export.CatalogPath)
	if err != nil {
		return cli.NewCommandError("exports", err)
	}
	defer cat.Close()

	jobs, err := cat.ListJobs(cmd.Context(), exportsFlags.limit)
	if err != nil {
		return cli.NewCommandError("exports", err)
	}
	return formatter.FormatTo(cmd.OutOrStdout(), jobsTable(jobs))
}
