// Package metrics exposes Prometheus metrics for the parameter resolver.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds resolver and parameter-administration metrics.
type Metrics struct {
	CacheHits           prometheus.Counter
	CacheMisses         prometheus.Counter
	ConfigurationErrors prometheus.Counter
	ParamsProposed      prometheus.Counter
	ParamsApproved      prometheus.Counter
	ParamsDeactivated   prometheus.Counter
}

// New creates and registers all parameter resolver metrics.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_regparam_cache_hits_total",
			Help: "Parameter resolutions served from cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_regparam_cache_misses_total",
			Help: "Parameter resolutions that fell through to the store",
		}),
		ConfigurationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_regparam_configuration_errors_total",
			Help: "Resolutions that failed closed on ambiguous or conflicting parameters",
		}),
		ParamsProposed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_regparam_proposed_total",
			Help: "Parameter versions proposed",
		}),
		ParamsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_regparam_approved_total",
			Help: "Parameter versions approved and activated",
		}),
		ParamsDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_regparam_deactivated_total",
			Help: "Parameter versions deactivated",
		}),
	}
}
