package main

import (
	"context"
	"errors"
	"log"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if !pg.Enabled() {
		logger.Fatal("POSTGRES_DSN is required to seed")
	}

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	_, err = seed.Run(ctx, repository.NewPostgresStore(pg.PoolHandle()), seed.Options{BcryptCost: cfg.Auth.BcryptCost}, logger)
	if errors.Is(err, seed.ErrAlreadySeeded) {
		logger.Info("seed skipped", zap.Error(err))
		return
	}
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}
