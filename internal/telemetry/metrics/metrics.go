// Package metrics exposes the CultureMech pipeline's batch-run counters as
// Prometheus collectors, registered once per process and updated by
// internal/stats as each RunReport is assembled. Kept deliberately narrow:
// one registry, one set of named metrics, no generic collector abstraction.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the pipeline's batch commands update.
type Registry struct {
	registry *prometheus.Registry

	RecipesProcessed *prometheus.CounterVec
	ErrorsByCategory *prometheus.CounterVec
	Quarantined      prometheus.Counter
	MappingHits      *prometheus.CounterVec
	MergeReduction   prometheus.Gauge
	BatchDuration    *prometheus.HistogramVec
}

// NewRegistry builds a fresh Registry with every metric registered under
// the "culturemech" namespace.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		registry: reg,
		RecipesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "culturemech",
			Name:      "recipes_processed_total",
			Help:      "Recipes processed by batch command, per command and outcome.",
		}, []string{"command", "outcome"}),
		ErrorsByCategory: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "culturemech",
			Name:      "errors_total",
			Help:      "Errors encountered during batch commands, by error category.",
		}, []string{"category"}),
		Quarantined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "culturemech",
			Name:      "quarantined_total",
			Help:      "Layer-3 records moved to the quarantine directory.",
		}),
		MappingHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "culturemech",
			Name:      "mapping_cascade_hits_total",
			Help:      "Mapping cascade resolutions, by stage that produced the hit.",
		}, []string{"stage"}),
		MergeReduction: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "culturemech",
			Name:      "merge_reduction_ratio",
			Help:      "Ratio of Layer-4 canonical recipes to Layer-3 input recipes in the last merge run.",
		}),
		BatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "culturemech",
			Name:      "batch_duration_seconds",
			Help:      "Wall-clock duration of a batch command run.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
	}
	reg.MustRegister(r.RecipesProcessed, r.ErrorsByCategory, r.Quarantined, r.MappingHits, r.MergeReduction, r.BatchDuration)
	return r
}

// Handler returns the HTTP handler cmd/apiserver mounts at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
