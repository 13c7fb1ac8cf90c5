package monitor

import (
	"context"
	"log/slog"
	"sync"

	"lendgate/internal/monitor/metrics"
)

// Drift thresholds on the population stability index.
const (
	moderateDrift    = 0.1
	significantDrift = 0.25
)

const (
	defaultWindowSize = 2000
	defaultMinSamples = 200
)

// Monitor accumulates live scores in a rolling window and compares
// their distribution against a frozen reference. When no reference is
// supplied, the first window of observations becomes it.
type Monitor struct {
	mu        sync.Mutex
	reference Distribution
	hasRef    bool
	warmup    []int

	window     []int
	next       int
	filled     bool
	windowSize int
	minSamples int

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithReference supplies a baseline distribution, typically from the
// model's development sample.
func WithReference(ref Distribution) Option {
	return func(m *Monitor) {
		m.reference = ref
		m.hasRef = true
	}
}

// WithWindowSize sets the rolling window length.
func WithWindowSize(n int) Option {
	return func(m *Monitor) { m.windowSize = n }
}

// WithMinSamples sets how many observations are needed before the
// index is reported.
func WithMinSamples(n int) Option {
	return func(m *Monitor) { m.minSamples = n }
}

// WithLogger attaches a logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

// WithMetrics attaches metrics.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Monitor) { m.metrics = mx }
}

// New builds a drift monitor.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		windowSize: defaultWindowSize,
		minSamples: defaultMinSamples,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.window = make([]int, m.windowSize)
	return m
}

// Observe records one live score and refreshes the published index.
func (m *Monitor) Observe(ctx context.Context, score int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasRef {
		m.warmup = append(m.warmup, score)
		if len(m.warmup) >= m.windowSize {
			m.reference = DistributionOf(m.warmup)
			m.hasRef = true
			m.warmup = nil
			m.logger.InfoContext(ctx, "drift reference frozen from live traffic",
				slog.Int("samples", m.windowSize))
		}
		return
	}

	m.window[m.next] = score
	m.next++
	if m.next == m.windowSize {
		m.next = 0
		m.filled = true
	}

	psi, ok := m.indexLocked()
	if !ok {
		return
	}
	if m.metrics != nil {
		m.metrics.ScorePSI.Set(psi)
	}
	switch {
	case psi >= significantDrift:
		m.logger.WarnContext(ctx, "significant score drift",
			slog.Float64("psi", psi))
	case psi >= moderateDrift:
		m.logger.InfoContext(ctx, "moderate score drift",
			slog.Float64("psi", psi))
	}
}

// Index reports the current population stability index; ok is false
// until enough observations have been collected.
func (m *Monitor) Index() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexLocked()
}

func (m *Monitor) indexLocked() (float64, bool) {
	if !m.hasRef {
		return 0, false
	}
	n := m.next
	if m.filled {
		n = m.windowSize
	}
	if n < m.minSamples {
		return 0, false
	}
	return PSI(m.reference, DistributionOf(m.window[:n])), true
}
