package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/stockroute-backend/api/controllers"
	alertcontrollers "github.com/angelmondragon/stockroute-backend/api/controllers/alerts"
	dispatchcontrollers "github.com/angelmondragon/stockroute-backend/api/controllers/dispatch"
	inventorycontrollers "github.com/angelmondragon/stockroute-backend/api/controllers/inventory"
	ridercontrollers "github.com/angelmondragon/stockroute-backend/api/controllers/riders"
	"github.com/angelmondragon/stockroute-backend/api/middleware"
	"github.com/angelmondragon/stockroute-backend/internal/dispatch"
	"github.com/angelmondragon/stockroute-backend/internal/inventory"
	"github.com/angelmondragon/stockroute-backend/internal/riders"
	"github.com/angelmondragon/stockroute-backend/pkg/config"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/metrics"
	"github.com/angelmondragon/stockroute-backend/pkg/redis"
)

// Services groups the domain services mounted under /api/v1.
type Services struct {
	Inventory inventory.Service
	Alerts    alertcontrollers.Service
	Riders    riders.Service
	Dispatch  dispatch.Service
}

// Infra groups the shared clients used by middleware and health checks.
type Infra struct {
	Redis       *redis.Client
	Readiness   map[string]controllers.Pinger
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, infra Infra, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(infra.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, infra.Readiness))
	})
	if infra.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(infra.Gatherer, promhttp.HandlerOpts{}))
	}

	writePolicy := middleware.NewRateLimitPolicy(
		"tenant_writes",
		cfg.RateLimit.TenantWriteWindow,
		cfg.RateLimit.TenantWriteLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, cfg.FeatureFlags.RequireToken, logg))
		r.Use(middleware.TenantContext(logg))
		// a nil *redis.Client must not become a non-nil interface
		if infra.Redis != nil {
			r.Use(middleware.TenantWriteRateLimit(writePolicy, infra.Redis, logg))
			r.Use(middleware.Idempotency(infra.Redis, cfg.Eventing.HTTPIdempotencyTTL, logg))
		}

		r.Route("/skus", func(r chi.Router) {
			r.Post("/", inventorycontrollers.CreateSKU(svc.Inventory, logg))
			r.Get("/", inventorycontrollers.ListSKUs(svc.Inventory, logg))
			r.Get("/{skuID}", inventorycontrollers.GetSKU(svc.Inventory, logg))
			r.Patch("/{skuID}", inventorycontrollers.UpdateSKU(svc.Inventory, logg))
			r.Post("/{skuID}/adjust-stock", inventorycontrollers.AdjustStock(svc.Inventory, logg))
			r.Get("/{skuID}/batches", inventorycontrollers.ListSKUBatches(svc.Inventory, logg))
			r.Post("/{skuID}/batches", inventorycontrollers.CreateBatch(svc.Inventory, logg))
		})
		r.Route("/batches", func(r chi.Router) {
			r.Get("/expiring", inventorycontrollers.ListExpiringBatches(svc.Inventory, cfg.Inventory, logg))
			r.Patch("/{batchID}", inventorycontrollers.UpdateBatch(svc.Inventory, logg))
		})
		r.Get("/stock-adjustments", inventorycontrollers.ListAdjustments(svc.Inventory, logg))

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", alertcontrollers.List(svc.Alerts, logg))
			r.Get("/{alertID}", alertcontrollers.Get(svc.Alerts, logg))
			r.Post("/{alertID}/acknowledge", alertcontrollers.Acknowledge(svc.Alerts, logg))
		})

		r.Route("/riders", func(r chi.Router) {
			r.Post("/", ridercontrollers.Create(svc.Riders, logg))
			r.Get("/", ridercontrollers.List(svc.Riders, logg))
			r.Get("/available", ridercontrollers.Available(svc.Riders, logg))
			r.Get("/{riderID}", ridercontrollers.Get(svc.Riders, logg))
			r.Patch("/{riderID}", ridercontrollers.Update(svc.Riders, logg))
			r.Post("/{riderID}/location", ridercontrollers.UpdateLocation(svc.Riders, logg))
			r.Get("/{riderID}/location-history", ridercontrollers.LocationHistory(svc.Riders, logg))
			r.Get("/{riderID}/dispatch-orders", dispatchcontrollers.RiderOrders(svc.Dispatch, logg))
		})

		r.Route("/dispatch-orders", func(r chi.Router) {
			r.Post("/", dispatchcontrollers.Create(svc.Dispatch, logg))
			r.Get("/", dispatchcontrollers.List(svc.Dispatch, logg))
			r.Get("/pending", dispatchcontrollers.Pending(svc.Dispatch, logg))
			r.Get("/assigned", dispatchcontrollers.Assigned(svc.Dispatch, logg))
			r.Get("/analytics", dispatchcontrollers.Analytics(svc.Dispatch, logg))
			r.Get("/{orderID}", dispatchcontrollers.Get(svc.Dispatch, logg))
			r.Post("/{orderID}/assign", dispatchcontrollers.Assign(svc.Dispatch, logg))
			r.Post("/{orderID}/start", dispatchcontrollers.Start(svc.Dispatch, logg))
			r.Post("/{orderID}/deliver", dispatchcontrollers.Deliver(svc.Dispatch, logg))
			r.Post("/{orderID}/complete", dispatchcontrollers.Deliver(svc.Dispatch, logg))
			r.Post("/{orderID}/cancel", dispatchcontrollers.Cancel(svc.Dispatch, logg))
			r.Post("/{orderID}/unassign", dispatchcontrollers.Unassign(svc.Dispatch, logg))
		})
	})

	return r
}
