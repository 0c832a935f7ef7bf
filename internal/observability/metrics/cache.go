package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks the read-through cache per query key.
type CacheMetrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	FetchErrors   *prometheus.CounterVec
	Invalidations *prometheus.CounterVec
	Rows          *prometheus.GaugeVec
}

// NewCacheMetrics creates and registers the read cache collectors.
func NewCacheMetrics(registry *prometheus.Registry) (*CacheMetrics, error) {
	m := &CacheMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register cache metrics: %w", err)
	}
	return m, nil
}

func (m *CacheMetrics) initMetrics() {
	labels := []string{"key"}
	m.Hits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drugfinder_cache_hits_total",
		Help: "Reads served from cache without a remote fetch.",
	}, labels)
	m.Misses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drugfinder_cache_misses_total",
		Help: "Reads that required a remote fetch.",
	}, labels)
	m.FetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drugfinder_cache_fetch_errors_total",
		Help: "Remote fetches that failed and returned an empty result.",
	}, labels)
	m.Invalidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drugfinder_cache_invalidations_total",
		Help: "Explicit invalidations by key.",
	}, labels)
	m.Rows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "drugfinder_cache_rows",
		Help: "Rows held by the last successful fetch of each key.",
	}, labels)
}

func (m *CacheMetrics) IncHit(key string) {
	if m != nil {
		m.Hits.WithLabelValues(key).Inc()
	}
}

func (m *CacheMetrics) IncMiss(key string) {
	if m != nil {
		m.Misses.WithLabelValues(key).Inc()
	}
}

func (m *CacheMetrics) IncFetchError(key string) {
	if m != nil {
		m.FetchErrors.WithLabelValues(key).Inc()
	}
}

func (m *CacheMetrics) IncInvalidation(key string) {
	if m != nil {
		m.Invalidations.WithLabelValues(key).Inc()
	}
}

func (m *CacheMetrics) SetRows(key string, n int) {
	if m != nil {
		m.Rows.WithLabelValues(key).Set(float64(n))
	}
}

// Collect implements the prometheus.Collector interface.
func (m *CacheMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Hits.Collect(ch)
	m.Misses.Collect(ch)
	m.FetchErrors.Collect(ch)
	m.Invalidations.Collect(ch)
	m.Rows.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *CacheMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Hits.Describe(ch)
	m.Misses.Describe(ch)
	m.FetchErrors.Describe(ch)
	m.Invalidations.Describe(ch)
	m.Rows.Describe(ch)
}
