package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartSyncMetrics records load and save activity against the cart state backends.
type CartSyncMetrics struct {
	loadDuration *prometheus.HistogramVec
	loads        *prometheus.CounterVec
	saves        *prometheus.CounterVec
	checkouts    *prometheus.CounterVec
}

// NewCartSyncMetrics registers the cart sync metrics on the provided registerer.
func NewCartSyncMetrics(reg prometheus.Registerer) *CartSyncMetrics {
	if reg == nil {
		return &CartSyncMetrics{}
	}
	loadDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_load_duration_seconds",
		Help:    "Duration of cart document loads in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})
	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_loads_total",
		Help: "Cart document loads by backend and result.",
	}, []string{"backend", "result"})
	saves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_saves_total",
		Help: "Cart document saves by backend and result.",
	}, []string{"backend", "result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Checkout attempts by result.",
	}, []string{"result"})
	reg.MustRegister(loadDuration, loads, saves, checkouts)
	return &CartSyncMetrics{
		loadDuration: loadDuration,
		loads:        loads,
		saves:        saves,
		checkouts:    checkouts,
	}
}

// ObserveLoadDuration records how long a backend load took.
func (c *CartSyncMetrics) ObserveLoadDuration(backend string, duration time.Duration) {
	if c == nil || c.loadDuration == nil {
		return
	}
	c.loadDuration.WithLabelValues(normalizeLabel(backend)).Observe(duration.Seconds())
}

// IncLoad increments the load counter for the backend with the given result.
func (c *CartSyncMetrics) IncLoad(backend, result string) {
	if c == nil || c.loads == nil {
		return
	}
	c.loads.WithLabelValues(normalizeLabel(backend), normalizeLabel(result)).Inc()
}

// IncSave increments the save counter for the backend with the given result.
func (c *CartSyncMetrics) IncSave(backend, result string) {
	if c == nil || c.saves == nil {
		return
	}
	c.saves.WithLabelValues(normalizeLabel(backend), normalizeLabel(result)).Inc()
}

// IncCheckout increments the checkout counter with the given result.
func (c *CartSyncMetrics) IncCheckout(result string) {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
