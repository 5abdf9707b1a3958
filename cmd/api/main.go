package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/stockroute-backend/api/controllers"
	"github.com/angelmondragon/stockroute-backend/api/routes"
	"github.com/angelmondragon/stockroute-backend/internal/alerts"
	"github.com/angelmondragon/stockroute-backend/internal/dispatch"
	"github.com/angelmondragon/stockroute-backend/internal/inventory"
	"github.com/angelmondragon/stockroute-backend/internal/riders"
	"github.com/angelmondragon/stockroute-backend/pkg/config"
	"github.com/angelmondragon/stockroute-backend/pkg/db"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/metrics"
	"github.com/angelmondragon/stockroute-backend/pkg/migrate"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox"
	"github.com/angelmondragon/stockroute-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics := metrics.NewDomainMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	services, err := buildServices(cfg, logg, dbClient, domainMetrics)
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Infra{
			Redis: redisClient,
			Readiness: map[string]controllers.Pinger{
				"db":    dbClient,
				"redis": redisClient,
			},
			Gatherer:    reg,
			HTTPMetrics: httpMetrics,
		}, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, domainMetrics *metrics.DomainMetrics) (routes.Services, error) {
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	engine, err := alerts.NewEngine(alerts.EngineParams{
		Repo:         alerts.NewRepository(dbClient.DB()),
		Tx:           dbClient,
		Outbox:       outboxService,
		Metrics:      domainMetrics,
		ExpiryWindow: cfg.Inventory.ExpiryWindow(),
	})
	if err != nil {
		return routes.Services{}, err
	}

	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), dbClient, engine, outboxService, domainMetrics)
	if err != nil {
		return routes.Services{}, err
	}

	riderService, err := riders.NewService(riders.NewRepository(dbClient.DB()), dbClient, outboxService, domainMetrics)
	if err != nil {
		return routes.Services{}, err
	}

	dispatchService, err := dispatch.NewService(dispatch.NewRepository(dbClient.DB()), dbClient, outboxService, domainMetrics)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Inventory: inventoryService,
		Alerts:    engine,
		Riders:    riderService,
		Dispatch:  dispatchService,
	}, nil
}
