package airdrop

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elskow/airdrop-journal/internal/config"
	"github.com/elskow/airdrop-journal/internal/tag"
)

func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			func(db *gorm.DB, config *config.AppConfig) Repository {
				return NewRepository(db, config.Database.QueryTimeout)
			},
			func(repo Repository, tags *tag.Service, log *zap.Logger) *Service {
				return NewService(repo, tags, log)
			},
			NewHandler,
		),
	)
}
