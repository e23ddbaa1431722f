package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/airdrop"
	"github.com/elskow/airdrop-journal/internal/auth"
	"github.com/elskow/airdrop-journal/internal/config"
	"github.com/elskow/airdrop-journal/internal/database"
	"github.com/elskow/airdrop-journal/internal/migration"
	"github.com/elskow/airdrop-journal/internal/notify"
	"github.com/elskow/airdrop-journal/internal/ratelimit"
	"github.com/elskow/airdrop-journal/internal/server"
	"github.com/elskow/airdrop-journal/internal/stats"
	"github.com/elskow/airdrop-journal/internal/tag"
	"github.com/elskow/airdrop-journal/internal/task"
)

// Module combines all application modules
func Module() fx.Option {
	return fx.Options(
		// Configuration
		fx.Provide(server.LoadConfig),

		// Logger
		fx.Provide(newLogger),

		// Storage
		database.Module(),
		migration.Module(),

		// Cross-cutting services
		notify.NewModule(),
		ratelimit.NewModule(),

		// Domain modules
		auth.NewModule(),
		tag.NewModule(),
		airdrop.NewModule(),
		task.NewModule(),
		stats.NewModule(),

		// Server
		fx.Provide(server.NewServer),

		// Start the server
		fx.Invoke(registerHooks),
	)
}

func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	return server.NewLogger(cfg.Env)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	srv *server.Server,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			return srv.Stop(ctx)
		},
	})
}
