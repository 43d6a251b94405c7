package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	accessToken string
	apiVersion  string
	accountName string
	logLevel    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wpexport",
	Short: "Download Workplace DIY export files from the Graph API",
	Long: `wpexport drives the Workplace DIY Export workflow: it discovers your
tenant/community ID, lists export jobs, and downloads the files of
completed exports to local disk.

Features:
  - Cursor-based pagination across all list endpoints
  - Streaming downloads with checksum verification
  - Retry with linear backoff and a configurable budget
  - Skip-on-exists: an interrupted run resumes where it left off
  - Secure credential storage using the system keychain`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.wpexport.yaml)")
	rootCmd.PersistentFlags().StringVar(&accessToken, "token", "", "Graph API access token (default: WORKPLACE_ACCESS_TOKEN env)")
	rootCmd.PersistentFlags().StringVar(&apiVersion, "api-version", "", "Graph API version to use")
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`wpexport {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
