package decision

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lendgate/internal/audit"
	"lendgate/internal/bureau"
	"lendgate/internal/grading"
	"lendgate/internal/policy"
	"lendgate/internal/regparam"
	"lendgate/internal/scoring"
	dErrors "lendgate/pkg/domain-errors"
)

type fakeBureau struct {
	report bureau.Report
}

func (f *fakeBureau) GetReport(context.Context, string) bureau.Report {
	return f.report
}

type fakeGrader struct {
	result grading.Result
	err    error
}

func (f *fakeGrader) Resolve(context.Context, grading.Profile) (grading.Result, error) {
	return f.result, f.err
}

type fakeScorer struct {
	result scoring.Result
	lastIn scoring.Input
}

func (f *fakeScorer) Score(_ context.Context, inp scoring.Input, _ time.Time) scoring.Result {
	f.lastIn = inp
	return f.result
}

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	asOf       time.Time
	bureaus    *fakeBureau
	grader     *fakeGrader
	scorer     *fakeScorer
	paramStore *regparam.MemoryStore
	auditStore *audit.MemoryStore
	service    *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.asOf = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	s.paramStore = regparam.NewMemoryStore()
	_, err := regparam.Seed(s.ctx, s.paramStore)
	s.Require().NoError(err)
	resolver := regparam.NewResolver(s.paramStore)

	engine, err := policy.NewEngine(resolver)
	s.Require().NoError(err)

	s.bureaus = &fakeBureau{report: bureau.Report{
		Source:               bureau.SourcePrimary,
		Score:                760,
		Grade:                "BBB",
		TelecomNoDelinquency: true,
	}}
	s.grader = &fakeGrader{result: grading.Result{
		Enterprise: grading.EQUnclassified,
		Industry:   grading.IRGUnclassified,
	}}
	s.scorer = &fakeScorer{result: scoring.Result{
		Score: 750, Grade: "BBB", PD: 0.02, ModelVersion: "v1",
	}}
	s.auditStore = audit.NewMemoryStore()

	s.service, err = NewService(
		s.bureaus, s.grader, s.scorer, engine, resolver,
		audit.NewRecorder(s.auditStore),
	)
	s.Require().NoError(err)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) application() Application {
	return Application{
		ApplicantHash: "a1b2c3d4",
		AsOf:          s.asOf,
		Loan: policy.Request{
			ProductType:            "credit",
			RequestedAmount:        30_000_000,
			RequestedTermMonths:    240,
			RateType:               "variable",
			Region:                 "metropolitan",
			IncomeAnnual:           60_000_000,
			IncomeVerified:         true,
			EmploymentType:         "employed",
			EmploymentTenureMonths: 48,
		},
		Profile: grading.Profile{Age: 40, ResidentHash: "a1b2c3d4"},
	}
}

func (s *ServiceSuite) TestApprovedAndRecorded() {
	res, err := s.service.Evaluate(s.ctx, s.application())
	s.Require().NoError(err)

	s.Equal(policy.DecisionApproved, res.Decision)
	s.Equal(750, res.Score)
	s.Equal(bureau.SourcePrimary, res.BureauSource)
	s.False(res.FallbackUsed)
	s.Nil(res.AppealDeadline)

	recs, err := s.auditStore.ListDecisions(s.ctx, audit.QueryFilter{})
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal(res.ID, recs[0].ID)
	s.Equal("approved", recs[0].Decision)
	s.Equal("a1b2c3d4", recs[0].ApplicantHash)
	s.NotEmpty(recs[0].ParamsUsed)
}

func (s *ServiceSuite) TestValidationRejectsBeforeScoring() {
	app := s.application()
	app.Loan.RequestedAmount = 0

	_, err := s.service.Evaluate(s.ctx, app)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeValidation))

	recs, err := s.auditStore.ListDecisions(s.ctx, audit.QueryFilter{})
	s.Require().NoError(err)
	s.Empty(recs)
}

func (s *ServiceSuite) TestAuditFailureWithholdsDecision() {
	s.auditStore.FailWrites = errors.New("disk full")

	res, err := s.service.Evaluate(s.ctx, s.application())
	s.Require().Error(err)
	s.Nil(res)
	s.True(dErrors.Is(err, dErrors.CodeAuditWrite))
}

func (s *ServiceSuite) TestBureauFallbackEscalatesApproval() {
	s.bureaus.report = bureau.Report{
		Source:   bureau.SourceDefault,
		Score:    700,
		Grade:    "BB",
		Fallback: true,
	}

	res, err := s.service.Evaluate(s.ctx, s.application())
	s.Require().NoError(err)

	s.Equal(policy.DecisionManualReview, res.Decision)
	var found bool
	for _, r := range res.Reasons {
		if r.RuleKey == "policy.soft.bureau_fallback" {
			found = true
		}
	}
	s.True(found)
	s.NotNil(res.AppealDeadline)
	s.Equal(s.asOf.Add(30*24*time.Hour), *res.AppealDeadline)
}

func (s *ServiceSuite) TestIndustryAdjustmentReachesScorer() {
	s.grader.result = grading.Result{
		Enterprise: grading.EQUnclassified,
		Industry:   grading.IRGHigh,
	}

	_, err := s.service.Evaluate(s.ctx, s.application())
	s.Require().NoError(err)
	s.InDelta(0.15, s.scorer.lastIn.IndustryPDAdjustment, 1e-9)
}

func (s *ServiceSuite) TestRejectionDisclosesAtMostThreeReasons() {
	s.scorer.result = scoring.Result{Score: 400, Grade: "C", PD: 0.3}
	app := s.application()
	app.Loan.IncomeAnnual = 10_000_000
	app.Loan.ExistingMonthlyPayment = 2_000_000
	s.bureaus.report.WorstDelinquencyStatus = 3

	res, err := s.service.Evaluate(s.ctx, app)
	s.Require().NoError(err)

	s.Equal(policy.DecisionRejected, res.Decision)
	s.Zero(res.ApprovedLimit)
	s.LessOrEqual(len(res.Reasons), 3)
	for _, r := range res.Reasons {
		s.True(r.Hard)
	}

	// The audit record keeps every reason even when disclosure trims.
	recs, err := s.auditStore.ListDecisions(s.ctx, audit.QueryFilter{})
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.GreaterOrEqual(len(recs[0].Reasons), len(res.Reasons))
}

func (s *ServiceSuite) TestGraderFailurePropagates() {
	s.grader.err = dErrors.New(dErrors.CodeInternal, "grade store unavailable")

	_, err := s.service.Evaluate(s.ctx, s.application())
	s.Require().Error(err)

	recs, listErr := s.auditStore.ListDecisions(s.ctx, audit.QueryFilter{})
	s.Require().NoError(listErr)
	s.Empty(recs)
}
