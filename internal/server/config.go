package server

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/elskow/airdrop-journal/internal/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

const envPrefix = "AIRDROP"

var ErrMissingJWTSecret = errors.New("auth.jwt_secret must be set")

// LoadConfig reads config/server/config.toml, applies AIRDROP_* environment
// overrides and validates the result.
func LoadConfig() (*config.AppConfig, error) {
	return loadConfig("./config/server")
}

func loadConfig(paths ...string) (*config.AppConfig, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = EnvDevelopment
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)
	v.Set("env", env)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Environment-specific overrides, e.g. [server.production]
	if envSettings := v.GetStringMap(fmt.Sprintf("server.%s", env)); len(envSettings) > 0 {
		if err := v.UnmarshalKey(fmt.Sprintf("server.%s", env), &cfg.Server); err != nil {
			return nil, fmt.Errorf("error unmarshaling env config: %w", err)
		}
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "airdrop_journal")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.query_timeout", 5*time.Second)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_expiration", 7*24*time.Hour)
	v.SetDefault("auth.issuer", "airdrop-journal")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.cookie_name", "jwt")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.lockout.threshold", 5)
	v.SetDefault("auth.lockout.duration", 2*time.Hour)
	v.SetDefault("auth.tokens.password_reset_ttl", 10*time.Minute)
	v.SetDefault("auth.tokens.email_verification_ttl", 24*time.Hour)
	v.SetDefault("auth.tokens.sweep_interval", time.Hour)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.store", "memory")
	v.SetDefault("rate_limit.rules.login", map[string]any{"window": 15 * time.Minute, "max": 5})
	v.SetDefault("rate_limit.rules.signup", map[string]any{"window": time.Hour, "max": 3})
	v.SetDefault("rate_limit.rules.forgot-password", map[string]any{"window": time.Hour, "max": 3})
	v.SetDefault("rate_limit.rules.resend-verification", map[string]any{"window": time.Hour, "max": 3})

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "rl")

	v.SetDefault("mail.driver", "log")
	v.SetDefault("mail.frontend_url", "http://localhost:3000")
	v.SetDefault("mail.kafka_brokers", []string{})
	v.SetDefault("mail.kafka_topic", "account_mail")
	v.SetDefault("mail.write_timeout", 5*time.Second)
}

// Validate rejects configurations the service cannot start with.
func Validate(cfg *config.AppConfig) error {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if cfg.Auth.TokenExpiration <= 0 {
		return fmt.Errorf("auth.token_expiration must be positive, got %s", cfg.Auth.TokenExpiration)
	}
	if cfg.Auth.Lockout.Threshold <= 0 {
		return fmt.Errorf("auth.lockout.threshold must be positive, got %d", cfg.Auth.Lockout.Threshold)
	}
	switch cfg.RateLimit.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("rate_limit.store must be memory or redis, got %q", cfg.RateLimit.Store)
	}
	switch cfg.Mail.Driver {
	case "log":
	case "kafka":
		if len(cfg.Mail.KafkaBrokers) == 0 {
			return errors.New("mail.kafka_brokers must be set when mail.driver is kafka")
		}
	default:
		return fmt.Errorf("mail.driver must be log or kafka, got %q", cfg.Mail.Driver)
	}
	return nil
}
