package scoring

import (
	"context"
	"log/slog"
	"time"

	"lendgate/internal/scoring/metrics"
)

// Adapter produces the score for one evaluation. The model service is
// tried first; any model failure silently degrades to the deterministic
// estimator, flagged in the result's provenance. A low probability from
// a healthy model is a valid answer, never a fallback trigger.
type Adapter struct {
	model    Model
	resolver ParamResolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithModel attaches the model service client. Without one, every score
// comes from the fallback.
func WithModel(m Model) AdapterOption {
	return func(a *Adapter) { a.model = m }
}

// WithAnchorResolver attaches the parameter resolver for scorecard
// anchors.
func WithAnchorResolver(r ParamResolver) AdapterOption {
	return func(a *Adapter) { a.resolver = r }
}

// WithAdapterLogger attaches a logger.
func WithAdapterLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) { a.logger = logger }
}

// WithAdapterMetrics attaches scoring metrics.
func WithAdapterMetrics(m *metrics.Metrics) AdapterOption {
	return func(a *Adapter) { a.metrics = m }
}

// NewAdapter creates a scoring adapter.
func NewAdapter(opts ...AdapterOption) *Adapter {
	a := &Adapter{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Score estimates the PD for the input, scales it as of the evaluation
// time, and maps the score to a grade.
func (a *Adapter) Score(ctx context.Context, inp Input, asOf time.Time) Result {
	rawPD, version, fallback := a.rawProbability(ctx, inp)

	pd := clampPD(rawPD * (1 + inp.IndustryPDAdjustment))

	anchors := resolveAnchors(ctx, a.resolver, asOf)
	score := ScaleScore(pd, anchors)

	if a.metrics != nil {
		a.metrics.ScoreHistogram.Observe(float64(score))
	}

	return Result{
		Score:          score,
		Grade:          GradeForScore(score),
		RawProbability: rawPD,
		PD:             pd,
		FallbackUsed:   fallback,
		ModelVersion:   version,
	}
}

func (a *Adapter) rawProbability(ctx context.Context, inp Input) (pd float64, version string, fallback bool) {
	if a.model != nil {
		if a.metrics != nil {
			a.metrics.ModelCalls.Inc()
		}
		pd, version, err := a.model.Predict(ctx, inp)
		if err == nil {
			return pd, version, false
		}
		if a.metrics != nil {
			a.metrics.ModelFailures.Inc()
		}
		if a.logger != nil {
			a.logger.WarnContext(ctx, "model service failed, using deterministic fallback",
				"error", err,
			)
		}
	}

	if a.metrics != nil {
		a.metrics.FallbackScores.Inc()
	}
	return estimatePD(inp), "", true
}
