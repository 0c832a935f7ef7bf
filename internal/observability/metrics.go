// Package observability wires the Prometheus registry for drugfinder.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/twdrugfinder/drugfinder/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Coda      *metrics.CodaMetrics
	Cache     *metrics.CacheMetrics
	Directory *metrics.DirectoryMetrics
	HTTP      *metrics.HTTPMetrics
}

// NewMetrics creates a registry with every drugfinder collector plus the Go runtime
// and process collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	codaMetrics, err := metrics.NewCodaMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Coda metrics: %w", err)
	}
	cacheMetrics, err := metrics.NewCacheMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache metrics: %w", err)
	}
	directoryMetrics, err := metrics.NewDirectoryMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory metrics: %w", err)
	}
	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Coda:      codaMetrics,
		Cache:     cacheMetrics,
		Directory: directoryMetrics,
		HTTP:      httpMetrics,
	}, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
