package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/lead-speed/sla-monitor/internal/api/http"
	"github.com/lead-speed/sla-monitor/internal/api/http/handlers"
	"github.com/lead-speed/sla-monitor/internal/auth"
	"github.com/lead-speed/sla-monitor/internal/cache"
	"github.com/lead-speed/sla-monitor/internal/config"
	"github.com/lead-speed/sla-monitor/internal/crm"
	"github.com/lead-speed/sla-monitor/internal/events"
	"github.com/lead-speed/sla-monitor/internal/observability"
	"github.com/lead-speed/sla-monitor/internal/persistence"
	"github.com/lead-speed/sla-monitor/internal/repository"
	"github.com/lead-speed/sla-monitor/internal/service"
	"github.com/lead-speed/sla-monitor/internal/worker"
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

	loc, err := cfg.SLA.Location()
	if err != nil {
		logger.Fatal("invalid SLA_TIMEZONE", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var store cache.Store
	if redis.Ping(ctx) == nil {
		store = cache.NewRedis(redis.Client, cfg.App.Name+":")
	} else {
		logger.Warn("redis unavailable, using in-memory cache")
		store = cache.NewMemory()
	}

	pool := pg.PoolHandle()
	leadRepo := repository.NewLeadRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartAttendanceRecorder(dispatcher, attendanceRepo, logger)

	crmClient := crm.NewPipedriveClient(cfg.Pipedrive, logger)
	metadata := crm.NewMetadata(crmClient, time.Duration(cfg.Pipedrive.MetadataTTLSec)*time.Second, logger)

	leadService := service.NewLeadService(leadRepo, dispatcher, store, logger)
	webhookService := service.NewWebhookService(leadService, metadata, metrics, logger)
	metricsService := service.NewMetricsService(leadRepo, store, cfg.SLA, cfg.Cache, loc, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, loc, logger)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Metrics:    handlers.NewMetricsHandler(metricsService),
		Leads:      handlers.NewLeadsHandler(metricsService, leadService),
		Attendance: handlers.NewAttendanceHandler(attendanceService),
		Webhook:    handlers.NewWebhookHandler(webhookService),
		Admin:      handlers.NewAdminHandler(leadService, attendanceService, store, metadata),
		AdminGuard: auth.NewAdminGuard(cfg.Admin.Secret),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
