package tag

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/elskow/airdrop-journal/internal/config"
)

func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			func(db *gorm.DB, config *config.AppConfig) Repository {
				return NewRepository(db, config.Database.QueryTimeout)
			},
			NewService,
			NewHandler,
		),
	)
}
