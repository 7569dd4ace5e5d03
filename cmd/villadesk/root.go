package main

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/villadesk/internal/clock"
	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/smallbiznis/villadesk/internal/observability"
	"github.com/smallbiznis/villadesk/internal/seed"
	"github.com/smallbiznis/villadesk/internal/server"
	"github.com/smallbiznis/villadesk/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "villadesk",
	Short: "Villa rental back office: reservations, installments, expenses and owner payouts",
	Long: `villadesk runs the reservation back office API and its maintenance tasks.

Configuration is read from the environment (and a .env file when present).
Invoice numbering and payout policy are read from invoicing.yaml.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var nodeID int64

func init() {
	rootCmd.PersistentFlags().Int64Var(&nodeID, "node-id", 1, "snowflake node id for generated ids (0-1023)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(sequenceCmd)
	rootCmd.AddCommand(seedAdminCmd)
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(nodeID)
}

// infrastructure is shared by the server and the one-shot commands.
func infrastructure() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		server.Services,
		seed.Module,
	)
}

// runTask builds the dependency graph without the HTTP server, fills
// targets and runs fn between start and stop.
func runTask(cmd *cobra.Command, fn func(ctx context.Context) error, targets ...any) error {
	app := fx.New(
		fx.NopLogger,
		infrastructure(),
		fx.Populate(targets...),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	return fn(cmd.Context())
}
