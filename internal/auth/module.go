package auth

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elskow/airdrop-journal/internal/config"
	"github.com/elskow/airdrop-journal/internal/notify"
	"github.com/elskow/airdrop-journal/internal/password"
	"github.com/elskow/airdrop-journal/internal/token"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			func(db *gorm.DB, config *config.AppConfig) Repository {
				return NewRepository(db, config.Database.QueryTimeout)
			},
			func(config *config.AppConfig) *password.Hasher {
				return password.NewHasher(config.Auth.BcryptCost)
			},
			// An empty secret fails here and aborts start-up.
			func(config *config.AppConfig) (*token.Issuer, error) {
				return token.NewIssuer(token.Config{
					Secret: config.Auth.JWTSecret,
					TTL:    config.Auth.TokenExpiration,
					Issuer: config.Auth.Issuer,
				})
			},
			func(
				config *config.AppConfig,
				log *zap.Logger,
				repo Repository,
				hasher *password.Hasher,
				issuer *token.Issuer,
				notifier notify.Notifier,
			) (*Service, error) {
				return NewService(&config.Auth, log, repo, hasher, issuer, notifier)
			},
			func(svc *Service, config *config.AppConfig, log *zap.Logger) *Handler {
				return NewHandler(svc, &config.Auth, log)
			},
			func(svc *Service, config *config.AppConfig, log *zap.Logger) *Middleware {
				return NewMiddleware(&config.Auth, svc, log)
			},
			func(repo Repository, config *config.AppConfig, log *zap.Logger) *TokenSweeper {
				return NewTokenSweeper(repo, config.Auth.Tokens.SweepInterval, log)
			},
		),
		fx.Invoke(registerSweeper),
	)
}

func registerSweeper(lifecycle fx.Lifecycle, sweeper *TokenSweeper, config *config.AppConfig, log *zap.Logger) {
	if config.Auth.Tokens.SweepInterval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				sweeper.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			log.Info("stopping token sweeper")
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
