// Package metrics exposes Prometheus metrics for the evaluation flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds evaluation pipeline metrics.
type Metrics struct {
	Evaluations     *prometheus.CounterVec
	Duration        prometheus.Histogram
	AuditFailures   prometheus.Counter
	BureauFallbacks prometheus.Counter
}

// New creates and registers all evaluation metrics.
func New() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lendgate_decision_evaluations_total",
			Help: "Completed evaluations by terminal state",
		}, []string{"decision"}),
		Duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lendgate_decision_duration_seconds",
			Help:    "End to end evaluation latency",
			Buckets: prometheus.DefBuckets,
		}),
		AuditFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_decision_audit_failures_total",
			Help: "Evaluations failed because the audit record could not be written",
		}),
		BureauFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_decision_bureau_fallbacks_total",
			Help: "Evaluations that ran on a defaulted bureau report",
		}),
	}
}
