package decision

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lendgate/internal/audit"
	"lendgate/internal/bureau"
	"lendgate/internal/decision/metrics"
	"lendgate/internal/grading"
	"lendgate/internal/policy"
	"lendgate/internal/regparam"
	"lendgate/internal/scoring"
	dErrors "lendgate/pkg/domain-errors"
	"lendgate/pkg/requestcontext"
)

// defaultEvidenceTimeout bounds the parallel bureau and grading fetches.
const defaultEvidenceTimeout = 5 * time.Second

// BureauReader fetches the applicant's credit report.
type BureauReader interface {
	GetReport(ctx context.Context, residentHash string) bureau.Report
}

// Grader resolves enterprise and industry grades and segments.
type Grader interface {
	Resolve(ctx context.Context, profile grading.Profile) (grading.Result, error)
}

// Scorer produces a score with model or fallback provenance.
type Scorer interface {
	Score(ctx context.Context, inp scoring.Input, asOf time.Time) scoring.Result
}

// PolicyEngine runs the decision policy over scored evidence.
type PolicyEngine interface {
	Decide(ctx context.Context, req policy.Request, score scoring.Result, grades grading.Result, asOf time.Time) (policy.Outcome, error)
}

// ParamResolver reads governed parameters.
type ParamResolver interface {
	Resolve(ctx context.Context, key string, asOf time.Time, matchCtx regparam.Context) (regparam.Resolved, error)
}

// DecisionRecorder durably appends the audit record. A failed write
// fails the evaluation.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, rec audit.DecisionRecord) error
}

// Service runs one evaluation end to end.
type Service struct {
	bureaus  BureauReader
	grader   Grader
	scorer   Scorer
	engine   PolicyEngine
	resolver ParamResolver
	recorder DecisionRecorder
	logger   *slog.Logger
	metrics  *metrics.Metrics

	evidenceTimeout time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger attaches a logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithServiceMetrics attaches metrics.
func WithServiceMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithEvidenceTimeout bounds the parallel evidence fetches.
func WithEvidenceTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.evidenceTimeout = d
		}
	}
}

// NewService wires the evaluation pipeline.
func NewService(bureaus BureauReader, grader Grader, scorer Scorer, engine PolicyEngine, resolver ParamResolver, recorder DecisionRecorder, opts ...ServiceOption) (*Service, error) {
	switch {
	case bureaus == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "decision: bureau reader is required")
	case grader == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "decision: grader is required")
	case scorer == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "decision: scorer is required")
	case engine == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "decision: policy engine is required")
	case resolver == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "decision: parameter resolver is required")
	case recorder == nil:
		return nil, dErrors.New(dErrors.CodeInternal, "decision: audit recorder is required")
	}
	s := &Service{
		bureaus:  bureaus,
		grader:   grader,
		scorer:   scorer,
		engine:   engine,
		resolver: resolver,
		recorder: recorder,
		logger:   slog.Default(),

		evidenceTimeout: defaultEvidenceTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var validProducts = map[string]bool{
	"credit": true, "credit_soho": true, "mortgage": true, "micro": true,
}

var validRateTypes = map[string]bool{
	"": true, "fixed": true, "variable": true, "mixed_short": true, "mixed_long": true,
}

func validate(app Application) error {
	switch {
	case app.ApplicantHash == "":
		return dErrors.New(dErrors.CodeValidation, "applicant hash is required")
	case !validProducts[app.Loan.ProductType]:
		return dErrors.Newf(dErrors.CodeValidation, "unknown product type %q", app.Loan.ProductType)
	case app.Loan.RequestedAmount <= 0:
		return dErrors.New(dErrors.CodeValidation, "requested amount must be positive")
	case app.Loan.RequestedTermMonths <= 0 && !app.Loan.Revolving:
		return dErrors.New(dErrors.CodeValidation, "requested term must be positive")
	case !validRateTypes[app.Loan.RateType]:
		return dErrors.Newf(dErrors.CodeValidation, "unknown rate type %q", app.Loan.RateType)
	case app.Loan.IncomeAnnual < 0:
		return dErrors.New(dErrors.CodeValidation, "income cannot be negative")
	case app.Loan.ProductType == "mortgage" && app.Loan.CollateralValue <= 0:
		return dErrors.New(dErrors.CodeValidation, "mortgage requires a collateral value")
	}
	return nil
}

// Evaluate runs the full pipeline. The returned result is durably
// recorded before it is reported; an audit write failure fails the
// call even though the computation succeeded.
func (s *Service) Evaluate(ctx context.Context, app Application) (*Result, error) {
	started := time.Now()
	if err := validate(app); err != nil {
		return nil, err
	}

	asOf := app.AsOf
	if asOf.IsZero() {
		asOf = requestcontext.Now(ctx)
	}

	report, grades, err := s.gatherEvidence(ctx, app)
	if err != nil {
		return nil, err
	}
	if report.Fallback && s.metrics != nil {
		s.metrics.BureauFallbacks.Inc()
	}

	irgAdj := 0.0
	if grades.Industry != grading.IRGUnclassified && grades.Industry != "" {
		r, err := s.resolver.Resolve(ctx, "irg.pd_adjustment", asOf, regparam.Context{"industry_risk": string(grades.Industry)})
		switch {
		case err == nil:
			irgAdj = r.Value.FieldOr("pd_adjustment", 0)
		case dErrors.Is(err, dErrors.CodeNotFound):
		default:
			return nil, err
		}
	}

	score := s.scorer.Score(ctx, scoringInput(app, report, irgAdj), asOf)

	// The bureau is authoritative for delinquency history.
	app.Loan.WorstDelinquencyStatus = report.WorstDelinquencyStatus

	outcome, err := s.engine.Decide(ctx, app.Loan, score, grades, asOf)
	if err != nil {
		return nil, err
	}

	// A defaulted bureau report is a data-quality flag: an approval on
	// top of it is escalated instead of trusted.
	if report.Fallback && outcome.Decision == policy.DecisionApproved {
		outcome.Decision = policy.DecisionManualReview
		outcome.Reasons = append(outcome.Reasons, policy.Reason{
			RuleKey:     "policy.soft.bureau_fallback",
			Explanation: "credit report unavailable, evaluated on conservative defaults",
		})
	}

	reasons := assembleReasons(outcome.Reasons, outcome.Decision)

	res := &Result{
		ID:            uuid.New(),
		Decision:      outcome.Decision,
		Score:         outcome.Score,
		Grade:         outcome.Grade,
		PD:            outcome.PD,
		ApprovedRate:  outcome.Rate.FinalRate,
		ApprovedLimit: outcome.ApprovedAmount,
		TermMonths:    outcome.ApprovedTermMonths,
		Rate:          outcome.Rate,
		DSR:           outcome.DSR,
		StressDSR:     outcome.StressDSR,
		LTV:           outcome.LTV,
		Enterprise:    outcome.EnterpriseGrade,
		Industry:      outcome.IndustryGrade,
		Segments:      outcome.Segments,
		Reasons:       reasons,
		FallbackUsed:  score.FallbackUsed,
		ModelVersion:  score.ModelVersion,
		BureauSource:  report.Source,
		EvaluatedAt:   asOf,
	}
	if res.Decision != policy.DecisionApproved {
		deadline := asOf.Add(appealWindow)
		res.AppealDeadline = &deadline
	}

	rec := decisionRecord(res, app, outcome)
	rec.RequestID = requestcontext.RequestID(ctx)
	if err := s.recorder.RecordDecision(ctx, rec); err != nil {
		if s.metrics != nil {
			s.metrics.AuditFailures.Inc()
		}
		s.logger.ErrorContext(ctx, "audit write failed, decision withheld",
			slog.String("applicant_hash", app.ApplicantHash),
			slog.Any("error", err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Evaluations.WithLabelValues(string(res.Decision)).Inc()
		s.metrics.Duration.Observe(time.Since(started).Seconds())
	}
	s.logger.InfoContext(ctx, "application evaluated",
		slog.String("decision", string(res.Decision)),
		slog.Int("score", res.Score),
		slog.Bool("fallback_used", res.FallbackUsed),
		slog.String("bureau_source", string(res.BureauSource)))

	return res, nil
}

// gatherEvidence fetches the bureau report and the grading result in
// parallel under a shared timeout.
func (s *Service) gatherEvidence(ctx context.Context, app Application) (bureau.Report, grading.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.evidenceTimeout)
	defer cancel()

	var (
		report bureau.Report
		grades grading.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report = s.bureaus.GetReport(gctx, app.ApplicantHash)
		return nil
	})
	g.Go(func() error {
		var err error
		grades, err = s.grader.Resolve(gctx, app.Profile)
		return err
	})
	if err := g.Wait(); err != nil {
		return bureau.Report{}, grading.Result{}, err
	}
	return report, grades, nil
}

func scoringInput(app Application, report bureau.Report, irgAdj float64) scoring.Input {
	return scoring.Input{
		ProductType:         app.Loan.ProductType,
		RequestedAmount:     app.Loan.RequestedAmount,
		RequestedTermMonths: app.Loan.RequestedTermMonths,

		SelfEmployed:           app.Loan.EmploymentType == "self_employed",
		Age:                    app.Profile.Age,
		IncomeAnnual:           app.Loan.IncomeAnnual,
		ExistingMonthlyPayment: app.Loan.ExistingMonthlyPayment,

		BureauScore:            report.Score,
		DelinquencyCount12M:    report.DelinquencyCount12M,
		WorstDelinquencyStatus: report.WorstDelinquencyStatus,
		InquiryCount3M:         report.InquiryCount3M,

		TelecomNoDelinquency:         report.TelecomNoDelinquency,
		HealthInsurancePaidMonths12M: app.HealthInsurancePaidMonths12M,

		BusinessDurationMonths: app.BusinessDurationMonths,
		TaxFilingCount:         app.TaxFilingCount,

		IndustryPDAdjustment: irgAdj,
	}
}

func decisionRecord(res *Result, app Application, outcome policy.Outcome) audit.DecisionRecord {
	reasons := make([]audit.ReasonRecord, 0, len(outcome.Reasons))
	for _, r := range outcome.Reasons {
		reasons = append(reasons, audit.ReasonRecord{
			RuleKey:           r.RuleKey,
			RuleEffectiveFrom: r.RuleEffectiveFrom,
			Explanation:       r.Explanation,
		})
	}
	params := make([]audit.ParamVersionRef, 0, len(outcome.ParamsUsed))
	for _, p := range outcome.ParamsUsed {
		params = append(params, audit.ParamVersionRef{Key: p.Key, EffectiveFrom: p.EffectiveFrom})
	}
	return audit.DecisionRecord{
		ID:            res.ID,
		ApplicantHash: app.ApplicantHash,
		ProductType:   app.Loan.ProductType,
		AsOf:          res.EvaluatedAt,
		Decision:      string(res.Decision),
		Score:         res.Score,
		Grade:         res.Grade,
		Segments:      res.Segments,
		ApprovedRate:  res.ApprovedRate,
		ApprovedLimit: res.ApprovedLimit,
		FallbackUsed:  res.FallbackUsed,
		ModelVersion:  res.ModelVersion,
		Reasons:       reasons,
		ParamsUsed:    params,
		CreatedAt:     time.Now().UTC(),
	}
}
