// Package metrics provides Prometheus collectors for the drugfinder components.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values shared by the collectors.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// CodaMetrics tracks calls to the remote table store.
type CodaMetrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RowsFetched     *prometheus.CounterVec
	RateLimitWait   prometheus.Histogram
}

// NewCodaMetrics creates and registers the remote table store collectors.
func NewCodaMetrics(registry *prometheus.Registry) (*CodaMetrics, error) {
	m := &CodaMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register Coda metrics: %w", err)
	}
	return m, nil
}

func (m *CodaMetrics) initMetrics() {
	m.Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drugfinder_coda_requests_total",
		Help: "Requests sent to the remote table store by table, operation and result.",
	}, []string{"table", "operation", "result"})

	m.RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "drugfinder_coda_request_duration_seconds",
		Help:    "Duration of remote table store requests in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"operation"})

	m.RowsFetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drugfinder_coda_rows_fetched_total",
		Help: "Rows read from the remote table store by table.",
	}, []string{"table"})

	m.RateLimitWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "drugfinder_coda_ratelimit_wait_seconds",
		Help:    "Time spent waiting for the outbound rate limiter.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})
}

// RecordRequest counts one request and its duration.
func (m *CodaMetrics) RecordRequest(table, operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.Requests.WithLabelValues(table, operation, result).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(seconds)
}

// AddRowsFetched counts rows returned for a table.
func (m *CodaMetrics) AddRowsFetched(table string, n int) {
	if m == nil {
		return
	}
	m.RowsFetched.WithLabelValues(table).Add(float64(n))
}

// ObserveRateLimitWait records time spent blocked on the rate limiter.
func (m *CodaMetrics) ObserveRateLimitWait(seconds float64) {
	if m == nil {
		return
	}
	m.RateLimitWait.Observe(seconds)
}

// Collect implements the prometheus.Collector interface.
func (m *CodaMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Requests.Collect(ch)
	m.RequestDuration.Collect(ch)
	m.RowsFetched.Collect(ch)
	ch <- m.RateLimitWait
}

// Describe implements the prometheus.Collector interface.
func (m *CodaMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Requests.Describe(ch)
	m.RequestDuration.Describe(ch)
	m.RowsFetched.Describe(ch)
	ch <- m.RateLimitWait.Desc()
}
