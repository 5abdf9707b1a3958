package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDomainMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDomainMetrics(reg)
	m.IncStockAdjustment("sale")
	m.IncStockAdjustment("sale")
	m.IncAlertRaised("low_stock", true)
	m.IncDispatchTransition("pending", "assigned")
	m.IncLocationUpdate()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "stockroute_inventory_stock_adjustments_total", "reason", "sale"); err != nil || got != 2 {
		t.Fatalf("expected 2 sale adjustments, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "stockroute_inventory_alerts_raised_total", "rearmed", "true"); err != nil || got != 1 {
		t.Fatalf("expected 1 rearmed alert, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "stockroute_dispatch_transitions_total", "to", "assigned"); err != nil || got != 1 {
		t.Fatalf("expected 1 assignment, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *DomainMetrics
	m.IncStockAdjustment("sale")
	m.IncAlertRaised("batch_expiry", false)
	m.IncDispatchTransition("assigned", "in_progress")
	m.IncLocationUpdate()

	var h *HTTPMetrics
	h.Observe("GET", "/skus", 200, time.Millisecond)

	NewDomainMetrics(nil).IncStockAdjustment("sale")
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTPMetrics(reg)
	h.Observe("POST", "/api/v1/skus/{skuID}/adjust-stock", 201, 40*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "stockroute_http_request_duration_seconds", "status", "201"); err != nil || got <= 0 {
		t.Fatalf("expected latency sample, got %f (%v)", got, err)
	}
}
