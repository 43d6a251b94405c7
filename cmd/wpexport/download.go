package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"wpexport/pkg/export"
	"wpexport/pkg/logger"
	"wpexport/pkg/ui"
)

var (
	downloadOutput     string
	downloadMaxRetries int
)

// downloadCmd downloads the files of a single export job
var downloadCmd = &cobra.Command{
	Use:   "download <export-id>",
	Short: "Download the files of one export job",
	Long: `Download every file of an export job, including its company job and
per-user sub-jobs when present.

Files land under <output>/<job-id>/<file-name>. Files already on disk
are skipped, so an interrupted download can simply be re-run.`,
	Example: `  # Download an export into the default directory
  wpexport download 987654321

  # Custom destination and a larger retry budget
  wpexport download 987654321 --output ./archive --max-retries 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := map[string]interface{}{}
		if downloadOutput != "" {
			flags["output"] = downloadOutput
		}
		if cmd.Flags().Changed("max-retries") {
			flags["max-retries"] = downloadMaxRetries
		}

		cfg, err := loadConfig(flags)
		if err != nil {
			return err
		}
		if err := requireToken(cfg); err != nil {
			return err
		}

		service := newService(cfg)
		exporter, err := newExporter(cfg, service, export.NewLogReporter(logger.GetLogger()))
		if err != nil {
			return err
		}

		summary, err := exporter.RunJob(context.Background(), args[0])
		if err != nil {
			return err
		}

		ui.RenderSummary(os.Stdout, summary)
		if !summary.Ok() {
			return fmt.Errorf("%d file(s) failed to download", summary.Failed)
		}

		ui.PrintSuccess("Download complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "destination directory for downloaded files (default: exports/)")
	downloadCmd.Flags().IntVar(&downloadMaxRetries, "max-retries", 3, "maximum number of retries per file download")
}
