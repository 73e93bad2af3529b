package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/freelancer-bff/internal/api/http"
	"github.com/spec-kit/freelancer-bff/internal/api/http/handlers"
	"github.com/spec-kit/freelancer-bff/internal/auth"
	"github.com/spec-kit/freelancer-bff/internal/config"
	"github.com/spec-kit/freelancer-bff/internal/events"
	"github.com/spec-kit/freelancer-bff/internal/observability"
	"github.com/spec-kit/freelancer-bff/internal/persistence"
	"github.com/spec-kit/freelancer-bff/internal/repository"
	"github.com/spec-kit/freelancer-bff/internal/service"
	"github.com/spec-kit/freelancer-bff/internal/upstream"
	"github.com/spec-kit/freelancer-bff/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics.Subscribe(dispatcher)

	auditWorker := worker.NewAuditWorker(repository.NewAuditRepository(pg.PoolHandle()), cfg.Audit.BufferSize, logger)
	auditWorker.Start()
	service.NewAuditService(dispatcher, auditWorker, logger).RegisterHandlers()

	client := upstream.NewClient(cfg.Upstream, logger)
	subjects := repository.NewCachedSubjectRepository(
		repository.NewSubjectRepository(client),
		redis.Handle(),
		cfg.IdentityCache.TTL(),
		logger,
	)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	authService, err := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Subjects:   subjects,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	err = httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, handlers.HealthDependencies{
			Upstream: client,
			Postgres: pg,
			Redis:    redis,
			Metrics:  metrics,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Proxy:          handlers.NewProxyHandler(client, logger),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), subjects, dispatcher, logger),
		RoleGate:       auth.NewRoleGate(cfg.Auth.VerboseForbidden, dispatcher),
	})
	if err != nil {
		logger.Fatal("invalid route table", zap.Error(err))
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	auditWorker.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
