package task

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elskow/airdrop-journal/internal/airdrop"
	"github.com/elskow/airdrop-journal/internal/config"
)

func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			func(db *gorm.DB, config *config.AppConfig) Repository {
				return NewRepository(db, config.Database.QueryTimeout)
			},
			func(repo Repository, airdrops *airdrop.Service, log *zap.Logger) *Service {
				return NewService(repo, airdrops, log)
			},
			NewHandler,
		),
	)
}
