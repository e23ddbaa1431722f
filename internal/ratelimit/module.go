package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/config"
)

func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			newStore,
			func(store Store, config *config.AppConfig) *Limiter {
				return NewLimiter(store, policiesFromConfig(config.RateLimit.Rules))
			},
			func(limiter *Limiter, config *config.AppConfig, log *zap.Logger) *Middleware {
				return NewMiddleware(limiter, config.RateLimit.Enabled, log)
			},
		),
	)
}

func newStore(lifecycle fx.Lifecycle, cfg *config.AppConfig, log *zap.Logger) Store {
	if cfg.RateLimit.Store != "redis" {
		return NewMemoryStore(nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Counters fail open, so an unreachable Redis is only worth a warning.
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis unreachable, rate limits will not be enforced until it recovers",
					zap.String("addr", cfg.Redis.Addr),
					zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("closing redis client")
			return client.Close()
		},
	})
	return NewRedisStore(client, cfg.Redis.Prefix)
}

func policiesFromConfig(rules map[string]config.RateLimitRule) map[string]Policy {
	policies := make(map[string]Policy, len(rules))
	for class, rule := range rules {
		policies[class] = Policy{Window: rule.Window, Max: rule.Max}
	}
	return policies
}
