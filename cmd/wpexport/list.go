package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"wpexport/pkg/export"
	"wpexport/pkg/ui"
)

var listStatus string

// listCmd lists export jobs for a tenant
var listCmd = &cobra.Command{
	Use:   "list [tenant-id]",
	Short: "List export jobs",
	Long: `List DIY export jobs.

With a tenant ID the tenant's diy_exports endpoint is used and the
status filter is applied server-side. Without one, the documented
community/work_dyi_jobs endpoint is queried and filtering happens
client-side.`,
	Example: `  # List all completed exports for a tenant
  wpexport list 1234567890 --status completed

  # List every job visible to this community
  wpexport list`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		if err := requireToken(cfg); err != nil {
			return err
		}

		service := newService(cfg)
		ctx := context.Background()

		status := strings.ToLower(strings.TrimSpace(listStatus))
		if status == "all" {
			status = ""
		}

		var jobs []export.Job
		if len(args) == 1 {
			jobs, err = service.ListJobs(ctx, args[0], status)
		} else {
			jobs, err = service.ListCommunityJobs(ctx, status == "completed")
			if err == nil && status != "" && status != "completed" {
				filtered := jobs[:0]
				for _, job := range jobs {
					if string(job.Status) == status {
						filtered = append(filtered, job)
					}
				}
				jobs = filtered
			}
		}
		if err != nil {
			return err
		}

		ui.RenderJobsTable(os.Stdout, jobs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listStatus, "status", "", "filter export jobs by status (pending, in_progress, completed, failed, all)")
}
