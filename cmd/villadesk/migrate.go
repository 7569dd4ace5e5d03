package main

import (
	"context"
	"fmt"

	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/smallbiznis/villadesk/internal/migration"
	"github.com/smallbiznis/villadesk/internal/seed"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateSkipSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date",
	Example: `  villadesk migrate
  villadesk migrate --skip-seed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			conn   *gorm.DB
			cfg    config.Config
			seeder *seed.Seeder
		)
		return runTask(cmd, func(ctx context.Context) error {
			if err := migration.Apply(conn, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", cfg.DBType)
			if migrateSkipSeed {
				return nil
			}
			return seeder.Run(ctx)
		}, &conn, &cfg, &seeder)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSkipSeed, "skip-seed", false, "do not seed the invoice sequence or the first administrator")
}
