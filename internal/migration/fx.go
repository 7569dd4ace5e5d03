package migration

import (
	"context"

	"github.com/smallbiznis/villadesk/internal/config"
	"github.com/smallbiznis/villadesk/internal/seed"
	"github.com/smallbiznis/villadesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Apply brings the schema up to date for the configured database type.
func Apply(conn *gorm.DB, cfg config.Config) error {
	if db.IsPostgres(db.ConfigFrom(cfg)) {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}
	return AutoMigrate(conn)
}

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, seeder *seed.Seeder, log *zap.Logger) error {
		if err := Apply(conn, cfg); err != nil {
			return err
		}
		log.Named("migration").Info("schema ready", zap.String("database_type", cfg.DBType))
		return seeder.Run(context.Background())
	}),
)
