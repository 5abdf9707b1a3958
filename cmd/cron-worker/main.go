package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/stockroute-backend/internal/alerts"
	"github.com/angelmondragon/stockroute-backend/internal/cron"
	"github.com/angelmondragon/stockroute-backend/internal/inventory"
	"github.com/angelmondragon/stockroute-backend/pkg/config"
	"github.com/angelmondragon/stockroute-backend/pkg/db"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/metrics"
	"github.com/angelmondragon/stockroute-backend/pkg/migrate"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox"
	"github.com/angelmondragon/stockroute-backend/pkg/redis"
)

const sweepLockFormat = "sweep:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisSweepLock(redisClient, redisClient.LockKey(sweepLockName(cfg.App.Env)), workerName(), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to register sweep jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	engine, err := alerts.NewEngine(alerts.EngineParams{
		Repo:         alerts.NewRepository(dbClient.DB()),
		Tx:           dbClient,
		Outbox:       outboxService,
		ExpiryWindow: cfg.Inventory.ExpiryWindow(),
	})
	if err != nil {
		return nil, err
	}

	inventoryRepo := inventory.NewRepository(dbClient.DB())
	expiryJob, err := cron.NewBatchExpiryJob(cron.BatchExpiryJobParams{
		Logger:   logg,
		DB:       dbClient,
		Batches:  inventoryRepo,
		SKUs:     inventoryRepo,
		Alerts:   engine,
		PageSize: cfg.Cron.ExpirySweepBatchLimit,
	})
	if err != nil {
		return nil, err
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outbox.NewRepository(dbClient.DB()),
		Retention:   cfg.Cron.OutboxRetention,
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}

	return cron.NewRegistry(expiryJob, retentionJob)
}

func sweepLockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(sweepLockFormat, env)
}

// workerName identifies this process in the sweep lock value.
func workerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return fmt.Sprintf("cron-worker-%d", os.Getpid())
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
