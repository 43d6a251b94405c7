package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"wpexport/pkg/config"
	"wpexport/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage wpexport configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (WORKPLACE_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.wpexport.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration including values from all sources.

Sensitive values like the access token are masked.`,
	Run: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".wpexport.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# Workplace DIY Export configuration file
#
# All values can also be supplied through environment variables,
# for example: WORKPLACE_TENANT_ID, WORKPLACE_ACCESS_TOKEN

# Graph API settings
api:
  # Tenant/community ID (discoverable with 'wpexport community')
  tenant_id: ""

  # Permanent access token from a custom integration
  # Prefer 'wpexport auth login' or WORKPLACE_ACCESS_TOKEN over storing
  # the token in this file
  access_token: ""

  # Graph API version
  version: "v20.0"

  # API request timeout in seconds
  timeout: 60

# Rate limiting
rate_limit:
  # Requests per minute against the Graph API
  requests_per_minute: 60

# Output settings
output:
  # Directory where export files are written, one subdirectory per job
  base_directory: "exports"

# Download settings
download:
  # Concurrent file downloads per job
  concurrent_downloads: 1

  # Per-file download timeout in seconds
  download_timeout: 120

  # Retry attempts after the first failure
  max_retries: 3

  # Base backoff between retries in seconds (grows linearly)
  retry_backoff: 5

  # Only process jobs with this status ('all' disables filtering)
  status_filter: "completed"

# Logging
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional, stderr when empty)
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'wpexport auth login' to store your access token")
	fmt.Println("2. Run 'wpexport community' to discover your tenant ID")
	fmt.Println("3. Start downloading with 'wpexport export'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	displayCfg := *cfg
	if displayCfg.API.AccessToken != "" {
		displayCfg.API.AccessToken = maskToken(displayCfg.API.AccessToken)
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (WORKPLACE_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (auto-discovered if present)")
	}
	fmt.Println("4. Default values")
}
