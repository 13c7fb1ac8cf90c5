// Package metrics exposes Prometheus metrics for the scoring adapter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds scoring path metrics.
type Metrics struct {
	ModelCalls     prometheus.Counter
	ModelFailures  prometheus.Counter
	FallbackScores prometheus.Counter
	ScoreHistogram prometheus.Histogram
}

// New creates and registers all scoring metrics.
func New() *Metrics {
	return &Metrics{
		ModelCalls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_scoring_model_calls_total",
			Help: "Calls attempted against the model service",
		}),
		ModelFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_scoring_model_failures_total",
			Help: "Model calls that failed and triggered the fallback",
		}),
		FallbackScores: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_scoring_fallback_total",
			Help: "Scores produced by the deterministic fallback",
		}),
		ScoreHistogram: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lendgate_scoring_score",
			Help:    "Distribution of produced scores",
			Buckets: prometheus.LinearBuckets(300, 50, 13),
		}),
	}
}
