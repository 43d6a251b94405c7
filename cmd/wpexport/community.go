package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// communityCmd prints the tenant/community ID of the authenticated
// integration
var communityCmd = &cobra.Command{
	Use:   "community",
	Short: "Print the tenant/community ID",
	Long: `Resolve and print the tenant/community ID for the access token in use.

The ID identifies the customer account namespace under which export
jobs are created, and is required by the 'export' command.`,
	Example: `  wpexport community
  wpexport community --token <access-token>`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		if err := requireToken(cfg); err != nil {
			return err
		}

		service := newService(cfg)
		tenantID, err := service.DiscoverTenant(context.Background())
		if err != nil {
			return err
		}

		fmt.Println(tenantID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(communityCmd)
}
