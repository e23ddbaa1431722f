package migration

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/config"
)

// Module applies pending migrations on start when database.auto_migrate is set.
func Module() fx.Option {
	return fx.Options(
		fx.Invoke(registerHooks),
	)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	cfg *config.AppConfig,
	logger *zap.Logger,
) {
	if !cfg.Database.AutoMigrate {
		return
	}

	var migrator *Migrator
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			migrator, err = NewMigrator(&cfg.Database)
			if err != nil {
				return err
			}

			currentVersion, err := migrator.GetCurrentVersion()
			if err != nil {
				return fmt.Errorf("failed to get current migration version: %w", err)
			}

			latestVersion, err := migrator.GetLatestVersion()
			if err != nil {
				return fmt.Errorf("failed to get latest migration version: %w", err)
			}

			logger.Info("database migration status",
				zap.Int64("current_version", currentVersion),
				zap.Int64("latest_version", latestVersion))

			if currentVersion < latestVersion {
				logger.Info("upgrading database schema",
					zap.Int64("from_version", currentVersion),
					zap.Int64("to_version", latestVersion))

				if err := migrator.Up(); err != nil {
					return fmt.Errorf("failed to upgrade database: %w", err)
				}
			}

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if migrator == nil {
				return nil
			}
			return migrator.Close()
		},
	})
}
