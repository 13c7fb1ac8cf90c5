// Package metrics exposes Prometheus metrics for drift monitoring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds drift monitor metrics.
type Metrics struct {
	ScorePSI        prometheus.Gauge
	RecordsConsumed prometheus.Counter
	DecodeFailures  prometheus.Counter
}

// New creates and registers all drift monitor metrics.
func New() *Metrics {
	return &Metrics{
		ScorePSI: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lendgate_monitor_score_psi",
			Help: "Population stability index of the live score distribution",
		}),
		RecordsConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_monitor_records_consumed_total",
			Help: "Audit stream records consumed by the drift monitor",
		}),
		DecodeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lendgate_monitor_decode_failures_total",
			Help: "Audit stream records that could not be decoded",
		}),
	}
}
