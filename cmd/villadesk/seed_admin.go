package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/smallbiznis/villadesk/internal/seed"
	"github.com/spf13/cobra"
)

var adminInput seed.AdminInput

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create an administrator account",
	Example: `  VILLADESK_ADMIN_PASSWORD=... villadesk seed-admin --username admin --email admin@example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminInput.Password == "" {
			adminInput.Password = os.Getenv("VILLADESK_ADMIN_PASSWORD")
		}
		if adminInput.Username == "" || adminInput.Password == "" {
			return errors.New("--username and a password (--password or VILLADESK_ADMIN_PASSWORD) are required")
		}

		var seeder *seed.Seeder
		return runTask(cmd, func(ctx context.Context) error {
			if err := seeder.CreateAdmin(ctx, adminInput); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "administrator %s created\n", adminInput.Username)
			return nil
		}, &seeder)
	},
}

func init() {
	seedAdminCmd.Flags().StringVar(&adminInput.Username, "username", "", "login name")
	seedAdminCmd.Flags().StringVar(&adminInput.Email, "email", "", "email address")
	seedAdminCmd.Flags().StringVar(&adminInput.FullName, "full-name", "", "display name, defaults to the username")
	seedAdminCmd.Flags().StringVar(&adminInput.Password, "password", "", "password, prefer VILLADESK_ADMIN_PASSWORD")
}
