package scoring

import (
	"context"
	"math"
	"time"

	"lendgate/internal/regparam"
)

// Score scale bounds and anchor defaults. The anchors are normally
// resolved through the parameter store; these constants back them when
// no version is effective.
const (
	scoreMin = 300
	scoreMax = 900

	defaultBaseScore = 600
	defaultBasePD    = 0.072
	defaultPDO       = 40
)

// ParamResolver is the parameter store port used for scorecard anchors.
type ParamResolver interface {
	Resolve(ctx context.Context, key string, asOf time.Time, matchCtx regparam.Context) (regparam.Resolved, error)
}

// Anchors are the scorecard scaling parameters.
type Anchors struct {
	BaseScore float64
	BasePD    float64
	PDO       float64
}

// DefaultAnchors returns the built-in scaling anchors.
func DefaultAnchors() Anchors {
	return Anchors{BaseScore: defaultBaseScore, BasePD: defaultBasePD, PDO: defaultPDO}
}

// resolveAnchors reads the scaling anchors as of the evaluation time.
// A missing anchor falls back to its built-in default; anchors change
// rarely and an evaluation must not fail over them.
func resolveAnchors(ctx context.Context, resolver ParamResolver, asOf time.Time) Anchors {
	a := DefaultAnchors()
	if resolver == nil {
		return a
	}
	if r, err := resolver.Resolve(ctx, "scorecard.base_score", asOf, nil); err == nil {
		a.BaseScore = r.Value.FieldOr("value", a.BaseScore)
	}
	if r, err := resolver.Resolve(ctx, "scorecard.base_pd", asOf, nil); err == nil {
		a.BasePD = r.Value.FieldOr("value", a.BasePD)
	}
	if r, err := resolver.Resolve(ctx, "scorecard.pdo", asOf, nil); err == nil {
		a.PDO = r.Value.FieldOr("value", a.PDO)
	}
	return a
}

// ScaleScore converts a probability of default onto the score scale:
//
//	score = base − PDO/ln2 × ln(odds / baseOdds)
//
// clamped to [300, 900]. Degenerate probabilities map to the scale
// bounds.
func ScaleScore(pd float64, a Anchors) int {
	if pd <= 0 {
		return scoreMax
	}
	if pd >= 1 {
		return scoreMin
	}
	odds := pd / (1 - pd)
	baseOdds := a.BasePD / (1 - a.BasePD)
	score := a.BaseScore - (a.PDO/math.Ln2)*math.Log(odds/baseOdds)

	rounded := int(math.Round(score))
	if rounded < scoreMin {
		return scoreMin
	}
	if rounded > scoreMax {
		return scoreMax
	}
	return rounded
}
