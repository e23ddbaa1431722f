package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/migration"
	"github.com/elskow/airdrop-journal/internal/server"
)

func main() {
	command := flag.String("command", "up", "migration command (up/down/status/version/reset)")
	flag.Parse()

	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", server.EnvDevelopment)
	}

	log, err := server.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(*command, log); err != nil {
		log.Error("migration failed", zap.String("command", *command), zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(command string, log *zap.Logger) error {
	cfg, err := server.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	migrator, err := migration.NewMigrator(&cfg.Database)
	if err != nil {
		return err
	}
	defer migrator.Close()

	switch command {
	case "up":
		if err := migrator.Up(); err != nil {
			return err
		}
		log.Info("migrations applied")
	case "down":
		if err := migrator.Down(); err != nil {
			return err
		}
		log.Info("last migration rolled back")
	case "status":
		return migrator.Status()
	case "version":
		version, err := migrator.Version()
		if err != nil {
			return err
		}
		log.Info("current migration version", zap.Int64("version", version))
	case "reset":
		if err := migrator.Reset(); err != nil {
			return err
		}
		log.Info("migrations reset")
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}
