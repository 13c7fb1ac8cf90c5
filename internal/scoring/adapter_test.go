package scoring

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type fakeModel struct {
	probability float64
	version     string
	err         error
}

func (m *fakeModel) Predict(_ context.Context, _ Input) (float64, string, error) {
	if m.err != nil {
		return 0, "", m.err
	}
	return m.probability, m.version, nil
}

type AdapterSuite struct {
	suite.Suite
	ctx  context.Context
	asOf time.Time
}

func (s *AdapterSuite) SetupTest() {
	s.ctx = context.Background()
	s.asOf = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
}

func TestAdapterSuite(t *testing.T) {
	suite.Run(t, new(AdapterSuite))
}

func cleanInput() Input {
	return Input{
		ProductType:                  "credit",
		RequestedAmount:              30_000_000,
		RequestedTermMonths:          36,
		Age:                          35,
		IncomeAnnual:                 60_000_000,
		BureauScore:                  800,
		TelecomNoDelinquency:         true,
		HealthInsurancePaidMonths12M: 12,
	}
}

func (s *AdapterSuite) TestModelPath() {
	s.Run("healthy model result is used", func() {
		adapter := NewAdapter(WithModel(&fakeModel{probability: 0.02, version: "scorecard-v3"}))

		got := adapter.Score(s.ctx, cleanInput(), s.asOf)
		s.False(got.FallbackUsed)
		s.Equal("scorecard-v3", got.ModelVersion)
		s.InDelta(0.02, got.PD, 1e-9)
	})

	s.Run("low probability from a healthy model is not a fallback", func() {
		adapter := NewAdapter(WithModel(&fakeModel{probability: 0.0005, version: "scorecard-v3"}))

		got := adapter.Score(s.ctx, cleanInput(), s.asOf)
		s.False(got.FallbackUsed)
		s.GreaterOrEqual(got.Score, 800)
	})

	s.Run("model error triggers the fallback", func() {
		adapter := NewAdapter(WithModel(&fakeModel{err: errors.New("breaker open")}))

		got := adapter.Score(s.ctx, cleanInput(), s.asOf)
		s.True(got.FallbackUsed)
		s.Empty(got.ModelVersion)
		s.Greater(got.PD, 0.0)
	})

	s.Run("no model configured always falls back", func() {
		adapter := NewAdapter()

		got := adapter.Score(s.ctx, cleanInput(), s.asOf)
		s.True(got.FallbackUsed)
	})
}

func (s *AdapterSuite) TestIndustryAdjustment() {
	base := NewAdapter(WithModel(&fakeModel{probability: 0.05, version: "v3"}))
	got := base.Score(s.ctx, cleanInput(), s.asOf)

	inp := cleanInput()
	inp.IndustryPDAdjustment = 0.30
	adjusted := base.Score(s.ctx, inp, s.asOf)

	s.InDelta(0.05*1.30, adjusted.PD, 1e-9)
	s.Less(adjusted.Score, got.Score)
}

func (s *AdapterSuite) TestScaleScore() {
	anchors := DefaultAnchors()

	s.Run("anchor PD maps to the base score", func() {
		s.Equal(600, ScaleScore(0.072, anchors))
	})

	s.Run("halved odds gain one PDO", func() {
		baseOdds := 0.072 / (1 - 0.072)
		halved := baseOdds / 2
		pd := halved / (1 + halved)
		s.Equal(640, ScaleScore(pd, anchors))
	})

	s.Run("degenerate probabilities clamp to the bounds", func() {
		s.Equal(900, ScaleScore(0, anchors))
		s.Equal(300, ScaleScore(1, anchors))
		s.Equal(300, ScaleScore(0.9999999, anchors))
	})
}

func (s *AdapterSuite) TestGradeForScore() {
	cases := []struct {
		score int
		grade string
	}{
		{900, "AAA"},
		{870, "AAA"},
		{869, "AA"},
		{805, "A"},
		{750, "BBB"},
		{700, "BB"},
		{600, "B"},
		{550, "CCC"},
		{445, "CC"},
		{400, "C"},
		{300, "D"},
	}
	for _, tc := range cases {
		s.Equal(tc.grade, GradeForScore(tc.score), "score %d", tc.score)
	}
}

func (s *AdapterSuite) TestFallbackEstimator() {
	s.Run("delinquency raises the estimate", func() {
		clean := estimatePD(cleanInput())

		dirty := cleanInput()
		dirty.DelinquencyCount12M = 2
		dirty.WorstDelinquencyStatus = 1
		s.Greater(estimatePD(dirty), clean)
	})

	s.Run("zero income is treated as maximal debt pressure", func() {
		broke := cleanInput()
		broke.IncomeAnnual = 0
		s.Greater(estimatePD(broke), 0.5)
	})

	s.Run("self-employment adds risk on thin files", func() {
		base := estimatePD(cleanInput())

		selfEmployed := cleanInput()
		selfEmployed.SelfEmployed = true
		selfEmployed.BusinessDurationMonths = 12
		selfEmployed.TaxFilingCount = 1
		s.Greater(estimatePD(selfEmployed), base)
	})

	s.Run("estimate is a valid probability", func() {
		extreme := cleanInput()
		extreme.BureauScore = 300
		extreme.DelinquencyCount12M = 10
		extreme.WorstDelinquencyStatus = 3
		extreme.IncomeAnnual = 1

		pd := estimatePD(extreme)
		s.True(pd > 0 && pd < 1)
		s.False(math.IsNaN(pd))
	})
}
