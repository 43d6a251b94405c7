package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"wpexport/pkg/config"
	"wpexport/pkg/export"
	"wpexport/pkg/graph"
	"wpexport/pkg/logger"
	"wpexport/pkg/ui"
)

var (
	wizardTenantID string
	wizardOutput   string
)

// wizardCmd walks through the whole DIY export flow interactively
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive walkthrough of the DIY export workflow",
	Long: `Launch an interactive session that helps you authenticate, discover
your tenant/community ID, list export jobs and download export files.

Credentials are only held in memory for the session unless you store
them explicitly with 'wpexport auth login'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWizard()
	},
}

func init() {
	rootCmd.AddCommand(wizardCmd)

	wizardCmd.Flags().StringVar(&wizardTenantID, "tenant-id", "", "tenant/community ID to pre-populate the wizard")
	wizardCmd.Flags().StringVarP(&wizardOutput, "output", "o", "", "default download directory")
}

func runWizard() error {
	ui.PrintHighlight("Workplace Export Assistant")
	fmt.Println("This wizard authenticates with the DIY Export API, discovers your")
	fmt.Println("tenant/community ID, lists export jobs, and downloads export files.")
	fmt.Println()

	cfg, err := loadConfig(map[string]interface{}{
		"tenant-id": wizardTenantID,
		"output":    wizardOutput,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()

	cfg.API.Version = ui.Prompt("Graph API version", cfg.API.Version)

	if cfg.API.AccessToken != "" {
		fmt.Println("Using access token supplied via flag, environment or stored account.")
	} else if ui.Confirm("Do you already have a permanent access token?", true) {
		token, err := ui.PromptSecret("Paste your access token")
		if err != nil {
			return err
		}
		cfg.API.AccessToken = token
	} else {
		appID := ui.Prompt("Enter your custom integration App ID", "")
		appSecret, err := ui.PromptSecret("Enter your App Secret")
		if err != nil {
			return err
		}
		token, err := graph.FetchAppToken(ctx, cfg.API.Version, appID, appSecret, graph.Options{}, logger.GetLogger())
		if err != nil {
			ui.PrintError("Failed to fetch access token", err)
			return err
		}
		ui.PrintSuccess("Access token retrieved successfully.")
		cfg.API.AccessToken = token
	}

	if cfg.API.AccessToken == "" {
		return fmt.Errorf("an access token is required to continue")
	}
	fmt.Println(ui.Dim("Credentials are only held in memory for this session."))

	service := newService(cfg)

	if cfg.API.TenantID != "" {
		ui.PrintInfo("Using tenant/community ID", cfg.API.TenantID)
	} else if ui.Confirm("Do you already know your tenant/community ID?", false) {
		cfg.API.TenantID = ui.Prompt("Enter your tenant/community ID", "")
	} else {
		tenantID, err := service.DiscoverTenant(ctx)
		if err != nil {
			ui.PrintError("Unable to fetch tenant/community ID", err)
			cfg.API.TenantID = ui.Prompt("Paste your tenant/community ID (find it in Admin Panel URLs)", "")
		} else {
			cfg.API.TenantID = tenantID
			ui.PrintInfo("Discovered tenant/community ID", tenantID)
		}
	}

	for {
		action := strings.ToLower(ui.Prompt("What would you like to do next? (list/download/quit)", "list"))
		switch action {
		case "quit", "q", "exit":
			fmt.Println("Goodbye!")
			return nil
		case "list":
			wizardList(ctx, cfg.API.TenantID, service)
		case "download":
			wizardDownload(ctx, cfg, service)
		default:
			ui.PrintWarning("Unknown action", action)
		}
	}
}

func wizardList(ctx context.Context, tenantID string, service *export.Service) {
	status := strings.ToLower(strings.TrimSpace(
		ui.Prompt("Filter by status (completed, pending, ... or all)", "completed")))
	if status == "all" {
		status = ""
	}

	var jobs []export.Job
	var err error
	if tenantID != "" {
		jobs, err = service.ListJobs(ctx, tenantID, status)
	} else {
		jobs, err = service.ListCommunityJobs(ctx, status == "completed")
	}
	if err != nil {
		ui.PrintError("Failed to list export jobs", err)
		return
	}

	ui.RenderJobsTable(os.Stdout, jobs)
}

func wizardDownload(ctx context.Context, cfg *config.Config, service *export.Service) {
	jobID := ui.Prompt("Enter the export job ID you would like to download", "")
	if jobID == "" {
		ui.PrintWarning("No export job ID provided")
		return
	}

	detail, err := service.GetJob(ctx, jobID, "diy_types", "total_number_of_completed_jobs")
	if err != nil {
		ui.PrintError("Failed to fetch export job", err)
		return
	}

	ui.PrintInfo("Export job", detail.ID)
	ui.PrintInfo("Status", string(detail.Status))
	ui.PrintInfo("Completed", fmt.Sprintf("%t", detail.Completed))
	if len(detail.DiyTypes) > 0 {
		ui.PrintInfo("DIY types", strings.Join(detail.DiyTypes, ", "))
	}
	if detail.TotalCompletedJobs > 0 {
		ui.PrintInfo("Completed sub-jobs", fmt.Sprintf("%d", detail.TotalCompletedJobs))
	}

	cfg.Output.BaseDirectory = ui.Prompt("Where should the files be saved?", cfg.Output.BaseDirectory)

	exporter, err := newExporter(cfg, service, export.NewLogReporter(logger.GetLogger()))
	if err != nil {
		ui.PrintError("Failed to prepare download", err)
		return
	}

	summary, err := exporter.RunJob(ctx, jobID)
	if err != nil {
		ui.PrintError("Download failed", err)
		return
	}

	ui.RenderSummary(os.Stdout, summary)
	if summary.Ok() {
		ui.PrintSuccess("Download complete")
	}
}
