package main

import (
	"github.com/smallbiznis/villadesk/internal/migration"
	"github.com/smallbiznis/villadesk/internal/scheduler"
	"github.com/smallbiznis/villadesk/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Apply migrations, seed, start the payout scheduler and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := fx.New(
			infrastructure(),
			migration.Module,
			scheduler.Module,
			server.Module,
		)
		if err := app.Err(); err != nil {
			return err
		}
		app.Run()
		return nil
	},
}
