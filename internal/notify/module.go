package notify

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/config"
)

func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(newNotifier),
	)
}

func newNotifier(lifecycle fx.Lifecycle, cfg *config.AppConfig, log *zap.Logger) Notifier {
	links := NewLinks(cfg.Mail.FrontendURL)

	if cfg.Mail.Driver == "kafka" {
		writer := NewKafkaWriter(cfg.Mail.KafkaBrokers, cfg.Mail.KafkaTopic, cfg.Mail.WriteTimeout)
		n := NewKafkaNotifier(writer, links, cfg.Mail.WriteTimeout)
		lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("closing kafka mail writer")
				return n.Close()
			},
		})
		log.Info("mail delivery via kafka",
			zap.Strings("brokers", cfg.Mail.KafkaBrokers),
			zap.String("topic", cfg.Mail.KafkaTopic))
		return n
	}

	return NewLogNotifier(log, links, cfg.Env == "development")
}
