package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/storage"
	"github.com/spec-kit/helpdesk/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.PoolHandle())
	} else {
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var revocations auth.RevocationStore = auth.NewMemoryRevocationStore()
	if redis != nil {
		revocations = auth.NewRedisRevocationStore(redis.Client)
	}

	blobs, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to init attachment storage", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:    store.Users(),
		Revocations: revocations,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Blobs:      blobs,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	dashboardService := service.NewDashboardService(store)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Users(), revocations)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimit(),
		ErrorHandler: httptransport.NewErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Staff:          handlers.NewStaffHandler(ticketService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
