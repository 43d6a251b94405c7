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
	exportTenantID   string
	exportStatus     string
	exportOutput     string
	exportMaxRetries int
	exportConcurrent int
)

// exportCmd materializes a full export: all files of all completed jobs
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download every file of every completed export job",
	Long: `Walk all of a tenant's export jobs and download the files of the
completed ones under <output>/<job-id>/.

Individual file or job failures do not abort the run; they are counted
and reported at the end. Files already on disk are never re-fetched.`,
	Example: `  # Export everything completed for the configured tenant
  wpexport export

  # Explicit tenant with five concurrent downloads
  wpexport export --tenant-id 1234567890 --concurrent 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := map[string]interface{}{}
		if exportTenantID != "" {
			flags["tenant-id"] = exportTenantID
		}
		if exportStatus != "" {
			flags["status"] = exportStatus
		}
		if exportOutput != "" {
			flags["output"] = exportOutput
		}
		if cmd.Flags().Changed("max-retries") {
			flags["max-retries"] = exportMaxRetries
		}
		if cmd.Flags().Changed("concurrent") {
			flags["concurrent"] = exportConcurrent
		}

		cfg, err := loadConfig(flags)
		if err != nil {
			return err
		}
		if err := requireToken(cfg); err != nil {
			return err
		}

		service := newService(cfg)
		ctx := context.Background()

		tenantID := cfg.API.TenantID
		if tenantID == "" {
			tenantID, err = service.DiscoverTenant(ctx)
			if err != nil {
				return fmt.Errorf("no tenant ID configured and discovery failed: %w", err)
			}
			ui.PrintInfo("Discovered tenant", tenantID)
		}

		exporter, err := newExporter(cfg, service, export.NewLogReporter(logger.GetLogger()))
		if err != nil {
			return err
		}

		summary, err := exporter.Run(ctx, tenantID, cfg.Download.StatusFilter)
		if err != nil {
			return err
		}

		ui.RenderSummary(os.Stdout, summary)
		if !summary.Ok() {
			return fmt.Errorf("%d file(s) failed to download", summary.Failed)
		}

		ui.PrintSuccess("Export complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportTenantID, "tenant-id", "", "tenant/community ID (default: WORKPLACE_TENANT_ID env, else discovered)")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "filter export jobs by status (default: completed)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "destination directory for downloaded files (default: exports/)")
	exportCmd.Flags().IntVar(&exportMaxRetries, "max-retries", 3, "maximum number of retries per file download")
	exportCmd.Flags().IntVar(&exportConcurrent, "concurrent", 1, "number of concurrent file downloads")
}
