package stats

import (
	"go.uber.org/fx"

	"github.com/elskow/airdrop-journal/internal/airdrop"
	"github.com/elskow/airdrop-journal/internal/task"
)

func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			func(airdrops *airdrop.Service, tasks *task.Service) *Service {
				return NewService(airdrops, tasks)
			},
			NewHandler,
		),
	)
}
