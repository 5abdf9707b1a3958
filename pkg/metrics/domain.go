package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics counts inventory and dispatch activity. A nil *DomainMetrics is a no-op.
type DomainMetrics struct {
	stockAdjustments    *prometheus.CounterVec
	alertsRaised        *prometheus.CounterVec
	dispatchTransitions *prometheus.CounterVec
	locationUpdates     prometheus.Counter
}

// NewDomainMetrics registers the domain counters on reg.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	m := &DomainMetrics{
		stockAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "stock_adjustments_total",
			Help:      "Stock adjustments applied, by reason.",
		}, []string{"reason"}),
		alertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "alerts_raised_total",
			Help:      "Alerts created or re-armed, by type.",
		}, []string{"type", "rearmed"}),
		dispatchTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "transitions_total",
			Help:      "Dispatch order transitions, by outcome status.",
		}, []string{"from", "to"}),
		locationUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "rider_location_updates_total",
			Help:      "Rider location samples recorded.",
		}),
	}
	reg.MustRegister(m.stockAdjustments, m.alertsRaised, m.dispatchTransitions, m.locationUpdates)
	return m
}

func (m *DomainMetrics) IncStockAdjustment(reason string) {
	if m == nil || m.stockAdjustments == nil {
		return
	}
	m.stockAdjustments.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *DomainMetrics) IncAlertRaised(alertType string, rearmed bool) {
	if m == nil || m.alertsRaised == nil {
		return
	}
	m.alertsRaised.WithLabelValues(normalizeLabel(alertType), strconv.FormatBool(rearmed)).Inc()
}

func (m *DomainMetrics) IncDispatchTransition(from, to string) {
	if m == nil || m.dispatchTransitions == nil {
		return
	}
	m.dispatchTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *DomainMetrics) IncLocationUpdate() {
	if m == nil || m.locationUpdates == nil {
		return
	}
	m.locationUpdates.Inc()
}

// HTTPMetrics records request latency per route pattern.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration)
	return &HTTPMetrics{duration: duration}
}

func (h *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	h.duration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(elapsed.Seconds())
}
