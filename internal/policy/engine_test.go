package policy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lendgate/internal/grading"
	"lendgate/internal/regparam"
	"lendgate/internal/scoring"
)

type EngineSuite struct {
	suite.Suite
	store  *regparam.MemoryStore
	engine *Engine
	ctx    context.Context
	asOf   time.Time
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = regparam.NewMemoryStore()
	_, err := regparam.Seed(s.ctx, s.store)
	s.Require().NoError(err)

	s.engine, err = NewEngine(regparam.NewResolver(s.store))
	s.Require().NoError(err)
	s.asOf = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

// creditRequest is a clean application that passes every cap.
func (s *EngineSuite) creditRequest() Request {
	return Request{
		ProductType:            "credit",
		RequestedAmount:        30_000_000,
		RequestedTermMonths:    240,
		RateType:               "variable",
		Region:                 "metropolitan",
		IncomeAnnual:           60_000_000,
		IncomeVerified:         true,
		EmploymentType:         "employed",
		EmploymentTenureMonths: 48,
	}
}

func (s *EngineSuite) goodScore() scoring.Result {
	return scoring.Result{Score: 750, Grade: "BBB", PD: 0.02}
}

func (s *EngineSuite) decide(req Request, score scoring.Result, grades grading.Result) Outcome {
	out, err := s.engine.Decide(s.ctx, req, score, grades, s.asOf)
	s.Require().NoError(err)
	return out
}

func (s *EngineSuite) reasonFor(out Outcome, key string) (Reason, bool) {
	for _, r := range out.Reasons {
		if r.RuleKey == key {
			return r, true
		}
	}
	return Reason{}, false
}

func (s *EngineSuite) TestCleanApproval() {
	out := s.decide(s.creditRequest(), s.goodScore(), grading.Result{
		Enterprise: grading.EQUnclassified,
		Industry:   grading.IRGUnclassified,
	})

	s.Equal(DecisionApproved, out.Decision)
	s.Equal(30_000_000.0, out.ApprovedAmount)
	s.InDelta(3.0, out.DSR, 0.1)
	s.True(out.Rate.HurdleMet)

	_, hasReject := s.reasonFor(out, "dsr.max_ratio")
	s.False(hasReject)
}

func (s *EngineSuite) TestDebtServiceBreachRejects() {
	req := s.creditRequest()
	req.IncomeAnnual = 24_000_000
	req.ExistingMonthlyPayment = 1_090_000

	out := s.decide(req, s.goodScore(), grading.Result{})

	s.Equal(DecisionRejected, out.Decision)
	s.Zero(out.ApprovedAmount)
	s.InDelta(62.0, out.DSR, 0.1)

	r, ok := s.reasonFor(out, "dsr.max_ratio")
	s.Require().True(ok)
	s.True(r.Hard)
	s.Contains(r.Explanation, "62.0%")
	s.Contains(r.Explanation, "40%")
}

func (s *EngineSuite) TestScoreBelowCutoffRejects() {
	out := s.decide(s.creditRequest(), scoring.Result{Score: 440, Grade: "C", PD: 0.2}, grading.Result{})

	s.Equal(DecisionRejected, out.Decision)
	r, ok := s.reasonFor(out, "decision.cutoff.reject")
	s.Require().True(ok)
	s.True(r.Hard)
	s.Contains(r.Explanation, "440")
	s.Contains(r.Explanation, "450")
}

func (s *EngineSuite) TestScoreAtCutoffRejects() {
	out := s.decide(s.creditRequest(), scoring.Result{Score: 450, Grade: "C", PD: 0.2}, grading.Result{})
	s.Equal(DecisionRejected, out.Decision)

	out = s.decide(s.creditRequest(), scoring.Result{Score: 451, Grade: "C", PD: 0.2}, grading.Result{})
	s.Equal(DecisionManualReview, out.Decision)
}

func (s *EngineSuite) TestBorderlineScoreGoesToManualReview() {
	out := s.decide(s.creditRequest(), scoring.Result{Score: 500, Grade: "CC", PD: 0.1}, grading.Result{})
	s.Equal(DecisionManualReview, out.Decision)
}

func (s *EngineSuite) TestMedicalSegmentFloorLiftsBorderlineScore() {
	out := s.decide(s.creditRequest(), scoring.Result{Score: 500, Grade: "CC", PD: 0.1}, grading.Result{
		Enterprise: grading.EQUnclassified,
		Industry:   grading.IRGUnclassified,
		Segments:   []string{grading.SegmentMedical},
	})

	s.Equal(DecisionApproved, out.Decision)
	s.Equal(grading.EQGradeB, out.EnterpriseGrade)

	r, ok := s.reasonFor(out, "segment.benefit")
	s.Require().True(ok)
	s.False(r.Hard)
}

func (s *EngineSuite) TestSegmentBenefitsCombine() {
	out := s.decide(s.creditRequest(), s.goodScore(), grading.Result{
		Enterprise: grading.EQUnclassified,
		Industry:   grading.IRGUnclassified,
		Segments:   []string{grading.SegmentMedical, grading.SegmentMOU, grading.SegmentYouth},
	})

	s.Equal(DecisionApproved, out.Decision)
	// Rate adjustments are additive across segments.
	s.InDelta(-1.1, out.Rate.SegmentDiscount, 1e-9)
	// The limit uses the largest multiplier, not the product.
	s.Equal(30_000_000.0, out.ApprovedAmount)
	s.Equal(grading.EQGradeB, out.EnterpriseGrade)
}

func (s *EngineSuite) TestLargestSegmentMultiplierBoundsLimit() {
	req := s.creditRequest()
	req.RequestedAmount = 300_000_000
	req.RequestedTermMonths = 360

	out := s.decide(req, s.goodScore(), grading.Result{
		Segments: []string{grading.SegmentMedical, grading.SegmentYouth},
	})

	// income 60M x employed multiplier 1.5 x best benefit multiplier 3.0
	s.Equal(DecisionApproved, out.Decision)
	s.Equal(270_000_000.0, out.ApprovedAmount)
}

func (s *EngineSuite) TestLoanToValueBreachRejects() {
	req := Request{
		ProductType:            "mortgage",
		RequestedAmount:        50_000_000,
		RequestedTermMonths:    360,
		RateType:               "variable",
		Region:                 "metropolitan",
		AreaType:               "speculation",
		MultiHomeOwner:         true,
		CollateralValue:        100_000_000,
		IncomeAnnual:           120_000_000,
		IncomeVerified:         true,
		EmploymentType:         "employed",
		EmploymentTenureMonths: 60,
	}

	out := s.decide(req, s.goodScore(), grading.Result{})

	s.Equal(DecisionRejected, out.Decision)
	r, ok := s.reasonFor(out, "ltv.max_ratio")
	s.Require().True(ok)
	s.True(r.Hard)
	// speculation cap 40 minus multi-owner penalty 10
	s.Contains(r.Explanation, "30%")
	s.Contains(r.Explanation, "50.0%")
}

func (s *EngineSuite) TestMortgageLimitBoundByCollateral() {
	req := Request{
		ProductType:            "mortgage",
		RequestedAmount:        60_000_000,
		RequestedTermMonths:    360,
		RateType:               "variable",
		Region:                 "metropolitan",
		AreaType:               "general",
		CollateralValue:        100_000_000,
		IncomeAnnual:           120_000_000,
		IncomeVerified:         true,
		EmploymentType:         "employed",
		EmploymentTenureMonths: 60,
	}

	out := s.decide(req, s.goodScore(), grading.Result{})

	s.Equal(DecisionApproved, out.Decision)
	s.InDelta(60.0, out.LTV, 0.1)
	s.Equal(60_000_000.0, out.ApprovedAmount)
}

func (s *EngineSuite) TestStatutoryRateCeiling() {
	// A score passed in with an extreme PD prices far above the
	// ceiling; the offer is capped and the hurdle miss flags review.
	out := s.decide(s.creditRequest(), scoring.Result{Score: 750, Grade: "BBB", PD: 0.9}, grading.Result{})

	s.True(out.Rate.Capped)
	s.Equal(20.0, out.Rate.FinalRate)
	s.False(out.Rate.HurdleMet)
	s.Equal(DecisionManualReview, out.Decision)

	_, ok := s.reasonFor(out, "rate.max_interest")
	s.True(ok)
	_, ok = s.reasonFor(out, "policy.soft.raroc_hurdle")
	s.True(ok)
}

func (s *EngineSuite) TestSoftConditionsFlagManualReview() {
	s.Run("short employment tenure", func() {
		req := s.creditRequest()
		req.EmploymentTenureMonths = 3
		out := s.decide(req, s.goodScore(), grading.Result{})
		s.Equal(DecisionManualReview, out.Decision)
	})

	s.Run("unverified income", func() {
		req := s.creditRequest()
		req.IncomeVerified = false
		out := s.decide(req, s.goodScore(), grading.Result{})
		s.Equal(DecisionManualReview, out.Decision)
	})
}

func (s *EngineSuite) TestMinimumIncomeRejects() {
	req := s.creditRequest()
	req.IncomeAnnual = 10_000_000
	req.RequestedAmount = 1_000_000

	out := s.decide(req, s.goodScore(), grading.Result{})

	s.Equal(DecisionRejected, out.Decision)
	r, ok := s.reasonFor(out, "credit_loan.min_income")
	s.Require().True(ok)
	s.True(r.Hard)
}

func (s *EngineSuite) TestDelinquencyCutoffRejects() {
	req := s.creditRequest()
	req.WorstDelinquencyStatus = 2

	out := s.decide(req, s.goodScore(), grading.Result{})

	s.Equal(DecisionRejected, out.Decision)
	_, ok := s.reasonFor(out, "policy.delinquency_cutoff")
	s.True(ok)
}

func (s *EngineSuite) TestRaisingCapNeverRejectsApproved() {
	req := s.creditRequest()
	req.IncomeAnnual = 24_000_000
	req.ExistingMonthlyPayment = 1_090_000

	rejected := s.decide(req, s.goodScore(), grading.Result{})
	s.Equal(DecisionRejected, rejected.Decision)

	// Same request against a snapshot whose only change is a higher
	// debt-service cap.
	relaxed := regparam.NewMemoryStore()
	s.insertActive(relaxed, "dsr.max_ratio", nil, map[string]float64{"max_ratio": 70})

	engine, err := NewEngine(regparam.NewResolver(relaxed))
	s.Require().NoError(err)
	out, err := engine.Decide(s.ctx, req, s.goodScore(), grading.Result{}, s.asOf)
	s.Require().NoError(err)
	s.NotEqual(DecisionRejected, out.Decision)
}

func (s *EngineSuite) TestPhaseBoundaryIsExact() {
	req := s.creditRequest()
	grades := grading.Result{}

	before, err := s.engine.Decide(s.ctx, req, s.goodScore(), grades,
		time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC))
	s.Require().NoError(err)
	at, err := s.engine.Decide(s.ctx, req, s.goodScore(), grades,
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)

	// The later phase carries a larger add-on, so the stressed ratio
	// strictly increases at the boundary.
	s.Greater(at.StressDSR, before.StressDSR)
}

func (s *EngineSuite) TestStressAddonVariesByRegion() {
	metro := s.creditRequest()
	metro.Region = "metropolitan"
	regional := s.creditRequest()
	regional.Region = "non_metropolitan"

	metroOut := s.decide(metro, s.goodScore(), grading.Result{})
	regionalOut := s.decide(regional, s.goodScore(), grading.Result{})

	// The non-metropolitan add-on is twice the metropolitan one, so the
	// stressed ratio must come out higher for the same loan.
	s.Greater(regionalOut.StressDSR, metroOut.StressDSR)
	s.Equal(metroOut.DSR, regionalOut.DSR)
}

func (s *EngineSuite) TestIdempotence() {
	req := s.creditRequest()
	grades := grading.Result{Segments: []string{grading.SegmentYouth}}

	first := s.decide(req, s.goodScore(), grades)
	second := s.decide(req, s.goodScore(), grades)
	s.Equal(first, second)
}

func (s *EngineSuite) TestEveryRejectionNamesAParameter() {
	req := s.creditRequest()
	req.IncomeAnnual = 10_000_000
	req.ExistingMonthlyPayment = 2_000_000
	req.WorstDelinquencyStatus = 3

	out := s.decide(req, scoring.Result{Score: 400, Grade: "C", PD: 0.3}, grading.Result{})

	s.Equal(DecisionRejected, out.Decision)
	s.NotEmpty(out.Reasons)
	for _, r := range out.Reasons {
		if !r.Hard {
			continue
		}
		s.NotEmpty(r.RuleKey)
		var found bool
		for _, p := range out.ParamsUsed {
			if p.Key == r.RuleKey {
				found = true
				break
			}
		}
		s.True(found, "hard reason %q must reference a resolved parameter", r.RuleKey)
	}
}

func (s *EngineSuite) insertActive(store *regparam.MemoryStore, key string, cond regparam.Condition, fields map[string]float64) {
	p := regparam.Parameter{
		ID:            uuid.New(),
		Key:           key,
		Category:      "test",
		Value:         regparam.FixedValue(fields),
		Condition:     cond,
		EffectiveFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:      true,
		CreatedAt:     time.Now(),
	}
	s.Require().NoError(store.Insert(s.ctx, p))
}
