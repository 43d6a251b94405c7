package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"wpexport/pkg/auth"
	"wpexport/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Workplace credentials",
	Long: `Manage stored Workplace access tokens securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your access token or config files!`,
}

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login [account]",
	Short: "Store a Workplace access token securely",
	Long: `Store a permanent Workplace access token in the system keychain or
an encrypted file.

You will be prompted for:
  - Account name (if not provided; 'default' is used by other commands)
  - Access token (hidden as you type)
  - Tenant/community ID (optional)
  - Graph API version (optional)

To get a permanent access token, create a custom integration in the
Workplace Admin Panel and copy the token it generates.`,
	Example: `  # Interactive login
  wpexport auth login

  # Store under a named account
  wpexport auth login staging`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthLogin,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Long:  `List all stored Workplace accounts with sanitized token information.`,
	Run:   runAuthList,
}

// authRemoveCmd represents the auth remove command
var authRemoveCmd = &cobra.Command{
	Use:   "remove [account]",
	Short: "Remove stored credentials",
	Long: `Remove a stored Workplace account.

If no account name is provided, the 'default' account is removed.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthRemove,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authRemoveCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	} else {
		name = ui.Prompt("Account name", name)
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		if !ui.Confirm(fmt.Sprintf("Account '%s' already exists. Update credentials?", name), false) {
			return
		}
	}

	token, err := ui.PromptSecret("Access token")
	if err != nil {
		ui.PrintError("Failed to read access token", err.Error())
		os.Exit(1)
	}
	if token == "" {
		ui.PrintError("An access token is required")
		os.Exit(1)
	}

	tenantID := ui.Prompt("Tenant/community ID (press Enter to skip)", "")
	apiVersion := ui.Prompt("Graph API version (press Enter for default)", "")

	account := &auth.Account{
		Name:         name,
		AccessToken:  token,
		TenantID:     tenantID,
		APIVersion:   apiVersion,
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Account saved: " + name)
	fmt.Println()
	fmt.Println("Quick start:")
	fmt.Println("  $ wpexport list")
	fmt.Println("  $ wpexport export")
	if name != "default" {
		fmt.Printf("  $ wpexport export --account %s\n", name)
	}
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'wpexport auth login' to add an account")
		return
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Println()
	for i, account := range accounts {
		fmt.Printf("%d. Account: %s\n", i+1, account.Name)
		fmt.Printf("   Access Token: %s\n", maskToken(account.AccessToken))
		if account.TenantID != "" {
			fmt.Printf("   Tenant ID: %s\n", account.TenantID)
		}
		if account.APIVersion != "" {
			fmt.Printf("   API Version: %s\n", account.APIVersion)
		}
		if !account.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", account.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

func runAuthRemove(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	if !ui.Confirm(fmt.Sprintf("Remove account '%s'?", name), false) {
		return
	}

	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove account", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Account removed: " + name)
}

// maskToken keeps only a short prefix and suffix visible
func maskToken(token string) string {
	if len(token) <= 12 {
		return "********"
	}
	return token[:6] + "..." + token[len(token)-4:]
}
