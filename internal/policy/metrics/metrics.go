// Package metrics exposes Prometheus metrics for the policy engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds policy evaluation metrics.
type Metrics struct {
	Decisions         *prometheus.CounterVec
	HardCapViolations *prometheus.CounterVec
	RateCapped        prometheus.Counter
	HurdleMisses      prometheus.Counter
}

// New creates and registers all policy engine metrics.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lendgate_policy_decisions_total",
			Help: "Policy decisions by terminal state",
		}, []string{"decision"}),
		HardCapViolations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lendgate_policy_hard_cap_violations_total",
			Help: "Hard regulatory cap violations by parameter key",
		}, []string{"key"}),
		RateCapped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_policy_rate_capped_total",
			Help: "Offers capped at the statutory rate ceiling",
		}),
		HurdleMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_policy_raroc_hurdle_misses_total",
			Help: "Offers priced below the risk-adjusted return hurdle",
		}),
	}
}
