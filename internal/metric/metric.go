// Package metric exposes Prometheus metrics for PURL resolution and the
// repository calls behind it.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "purl"

// Registry owns a private Prometheus registry and the resolver metrics.
type Registry struct {
	registry *prometheus.Registry

	Resolutions        *prometheus.CounterVec
	RepositoryRequests *prometheus.CounterVec
	RepositoryDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with the resolver metrics and the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "PURL resolutions by variant and outcome (redirect, not_found, not_acceptable, error)",
			},
			[]string{"variant", "outcome"},
		),

		RepositoryRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "repository",
				Name:      "requests_total",
				Help:      "Repository lookups by operation and result (hit, miss, error)",
			},
			[]string{"operation", "result"},
		),

		RepositoryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "repository",
				Name:      "request_duration_seconds",
				Help:      "Repository lookup latency",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
	}

	r.registry.MustRegister(
		r.Resolutions,
		r.RepositoryRequests,
		r.RepositoryDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Gatherer returns the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveResolution counts one resolution outcome for a variant.
func (r *Registry) ObserveResolution(variant, outcome string) {
	r.Resolutions.WithLabelValues(variant, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
