package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the CRM API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	lookupErrors    *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	savesTotal      *prometheus.CounterVec
	clientsTotal    prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		lookupErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_lookup_errors_total",
				Help: "Total errors from external lookup services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_cache_hits_total",
				Help: "Total lookup cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_cache_misses_total",
				Help: "Total lookup cache misses.",
			},
			[]string{"cache"},
		),
		savesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_snapshot_saves_total",
				Help: "Total snapshot save attempts by outcome.",
			},
			[]string{"outcome"},
		),
		clientsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "crm_clients_total",
				Help: "Number of clients in the store.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrLookupError increments the lookup error counter.
func (m *Metrics) IncrLookupError(service string) {
	m.lookupErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSave increments the snapshot save counter with an outcome label.
func (m *Metrics) IncrSave(outcome string) {
	m.savesTotal.WithLabelValues(outcome).Inc()
}

// SetClientsTotal updates the clients gauge after a load or save.
func (m *Metrics) SetClientsTotal(n int) {
	m.clientsTotal.Set(float64(n))
}

// CacheHitRate reports the hit rate of a lookup cache since startup.
func (m *Metrics) CacheHitRate(cache string) float64 {
	hits := getCounterValue(m.cacheHits, cache)
	misses := getCounterValue(m.cacheMisses, cache)
	if hits+misses == 0 {
		return 0
	}
	return hits / (hits + misses)
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
