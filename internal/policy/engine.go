package policy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lendgate/internal/grading"
	"lendgate/internal/policy/metrics"
	"lendgate/internal/regparam"
	"lendgate/internal/scoring"
	dErrors "lendgate/pkg/domain-errors"
)

// ParamResolver is the governed-parameter port the engine reads every
// threshold through.
type ParamResolver interface {
	Resolve(ctx context.Context, key string, asOf time.Time, matchCtx regparam.Context) (regparam.Resolved, error)
}

// Documented defaults for parameters that may legitimately be absent.
const (
	defaultRejectCutoff  = 450
	defaultApproveCutoff = 530
	defaultDSRLimit      = 40
	defaultMaxRate       = 20
	defaultBaseRate      = 3.5
	defaultCCF           = 0.50

	// promoteFloorRank is the enterprise-grade rank at or above which a
	// guaranteed segment grade floor lifts a borderline score band to
	// approval.
	promoteFloorRank = 4

	softTenureMonths = 6
)

// Engine applies the decision policy in its fixed order. Evaluation is
// pure given the request and the parameter snapshot at as_of.
type Engine struct {
	resolver ParamResolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger attaches a logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithEngineMetrics attaches metrics.
func WithEngineMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine builds a policy engine over the parameter resolver.
func NewEngine(resolver ParamResolver, opts ...EngineOption) (*Engine, error) {
	if resolver == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "policy: resolver is required")
	}
	e := &Engine{resolver: resolver, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// evaluation accumulates the parameter references and reasons a single
// decision run produces.
type evaluation struct {
	engine *Engine
	ctx    context.Context
	asOf   time.Time

	params  []ParamRef
	reasons []Reason
	hard    bool
}

// resolve reads one parameter, recording the version used. A missing
// parameter reports ok=false; an ambiguous one fails the request.
func (ev *evaluation) resolve(key string, matchCtx regparam.Context) (regparam.Resolved, bool, error) {
	r, err := ev.engine.resolver.Resolve(ev.ctx, key, ev.asOf, matchCtx)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return regparam.Resolved{}, false, nil
		}
		return regparam.Resolved{}, false, err
	}
	ev.params = append(ev.params, ParamRef{Key: r.Key, EffectiveFrom: r.EffectiveFrom})
	return r, true, nil
}

func (ev *evaluation) addReason(key string, from time.Time, hard bool, format string, args ...any) {
	ev.reasons = append(ev.reasons, Reason{
		RuleKey:           key,
		RuleEffectiveFrom: from,
		Explanation:       fmt.Sprintf(format, args...),
		Hard:              hard,
	})
	if hard {
		ev.hard = true
		if m := ev.engine.metrics; m != nil {
			m.HardCapViolations.WithLabelValues(key).Inc()
		}
	}
}

// Decide runs the policy over one scored, graded application. The
// returned outcome is deterministic for a given request, as_of and
// parameter snapshot.
func (e *Engine) Decide(ctx context.Context, req Request, score scoring.Result, grades grading.Result, asOf time.Time) (Outcome, error) {
	ev := &evaluation{engine: e, ctx: ctx, asOf: asOf}

	// Step 1: score bands.
	rejectCutoff := float64(defaultRejectCutoff)
	approveCutoff := float64(defaultApproveCutoff)
	if r, ok, err := ev.resolve("decision.cutoff.reject", nil); err != nil {
		return Outcome{}, err
	} else if ok {
		rejectCutoff = r.Value.FieldOr("value", rejectCutoff)
	}
	if r, ok, err := ev.resolve("decision.cutoff.approve", nil); err != nil {
		return Outcome{}, err
	} else if ok {
		approveCutoff = r.Value.FieldOr("value", approveCutoff)
	}

	// Step 2: hard regulatory caps.
	dsrLimit := float64(defaultDSRLimit)
	var dsrFrom time.Time
	if r, ok, err := ev.resolve("dsr.max_ratio", nil); err != nil {
		return Outcome{}, err
	} else if ok {
		dsrLimit = r.Value.FieldOr("max_ratio", dsrLimit)
		dsrFrom = r.EffectiveFrom
	}

	ltvLimit := 0.0
	var ltvFrom time.Time
	if req.ProductType == "mortgage" {
		r, ok, err := ev.resolve("ltv.max_ratio", regparam.Context{"area": req.AreaType})
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			return Outcome{}, dErrors.Newf(dErrors.CodeConfiguration,
				"no effective ltv.max_ratio for area %q as of %s", req.AreaType, asOf.Format(time.RFC3339))
		}
		ltvLimit = r.Value.FieldOr("max_ratio", 0)
		if req.MultiHomeOwner {
			ltvLimit -= r.Value.FieldOr("multi_owner_penalty", 0)
		}
		ltvFrom = r.EffectiveFrom
	}

	maxRate := float64(defaultMaxRate)
	var maxRateFrom time.Time
	if r, ok, err := ev.resolve("rate.max_interest", nil); err != nil {
		return Outcome{}, err
	} else if ok {
		maxRate = r.Value.FieldOr("max_rate", maxRate)
		maxRateFrom = r.EffectiveFrom
	}

	if r, ok, err := ev.resolve("credit_loan.min_income", nil); err != nil {
		return Outcome{}, err
	} else if ok {
		if floor := r.Value.FieldOr("min_income", 0); req.IncomeAnnual < floor {
			ev.addReason(r.Key, r.EffectiveFrom, true,
				"annual income %.0f is below the minimum %.0f", req.IncomeAnnual, floor)
		}
	}
	if r, ok, err := ev.resolve("policy.delinquency_cutoff", nil); err != nil {
		return Outcome{}, err
	} else if ok {
		if worst := int(r.Value.FieldOr("max_status", 1)); req.WorstDelinquencyStatus > worst {
			ev.addReason(r.Key, r.EffectiveFrom, true,
				"worst delinquency status %d exceeds the maximum %d", req.WorstDelinquencyStatus, worst)
		}
	}

	// Step 3: stress add-on for the effective phase. Fixed-rate loans
	// carry none.
	addon := 0.0
	if req.RateType != "" && req.RateType != "fixed" {
		r, ok, err := ev.resolve("stress_dsr.addon", regparam.Context{
			"rate_type": req.RateType,
			"region":    req.Region,
		})
		if err != nil {
			return Outcome{}, err
		}
		if ok {
			addon = r.Value.FieldOr("addon_rate", 0)
		}
	}

	dsr := debtServiceRatio(req)
	stressDSR := stressedDebtServiceRatio(req, addon)
	ltv := loanToValue(req)

	if dsr > dsrLimit {
		ev.addReason("dsr.max_ratio", dsrFrom, true,
			"debt service ratio %.1f%% exceeds the cap %.0f%%", dsr, dsrLimit)
	} else if stressDSR > dsrLimit {
		ev.addReason("dsr.max_ratio", dsrFrom, true,
			"stressed debt service ratio %.1f%% exceeds the cap %.0f%%", stressDSR, dsrLimit)
	}
	if req.ProductType == "mortgage" && ltv > ltvLimit {
		ev.addReason("ltv.max_ratio", ltvFrom, true,
			"loan to value %.1f%% exceeds the cap %.0f%%", ltv, ltvLimit)
	}

	// The reject band is inclusive: a score exactly at the cutoff is
	// still rejected.
	if float64(score.Score) <= rejectCutoff {
		from := paramFrom(ev.params, "decision.cutoff.reject")
		ev.addReason("decision.cutoff.reject", from, true,
			"score %d does not clear the reject cutoff %d", score.Score, int(rejectCutoff))
	}

	// Steps 4 and 5: benefit gathering. Segment benefits are resolved
	// first because a guaranteed grade floor changes which enterprise
	// benefit applies.
	segRateAdj := 0.0
	largestSegMult := 0.0
	floorRank := 0
	for _, seg := range grades.Segments {
		r, ok, err := ev.resolve("segment.benefit", regparam.Context{"segment": seg})
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			continue
		}
		segRateAdj += r.Value.FieldOr("rate_adjustment", 0)
		if m := r.Value.FieldOr("limit_multiplier", 0); m > largestSegMult {
			largestSegMult = m
		}
		if f := int(r.Value.FieldOr("eq_grade_floor", 0)); f > floorRank {
			floorRank = f
		}
	}

	effectiveEQ := grades.Enterprise
	if floorRank > effectiveEQ.Rank() {
		effectiveEQ = grading.GradeForRank(floorRank)
		ev.addReason("segment.benefit", paramFrom(ev.params, "segment.benefit"), false,
			"segment grade floor raises the enterprise grade to %s", effectiveEQ)
	}

	eqMult := 1.0
	eqRateAdj := 0.0
	if effectiveEQ != grading.EQUnclassified && effectiveEQ != "" {
		r, ok, err := ev.resolve("eq_grade.benefit", regparam.Context{"eq_grade": string(effectiveEQ)})
		if err != nil {
			return Outcome{}, err
		}
		if ok {
			eqMult = r.Value.FieldOr("limit_multiplier", 1)
			eqRateAdj = r.Value.FieldOr("rate_adjustment", 0)
		}
	}

	irgRateAdj := 0.0
	irgLimitCap := 1.0
	if grades.Industry != grading.IRGUnclassified && grades.Industry != "" {
		r, ok, err := ev.resolve("irg.pd_adjustment", regparam.Context{"industry_risk": string(grades.Industry)})
		if err != nil {
			return Outcome{}, err
		}
		if ok {
			irgRateAdj = r.Value.FieldOr("rate_adjustment", 0)
			irgLimitCap = r.Value.FieldOr("limit_cap", 1)
			if irgLimitCap < 1 {
				ev.addReason(r.Key, r.EffectiveFrom, false,
					"industry risk grade %s caps the limit at %.0f%%", grades.Industry, irgLimitCap*100)
			}
		}
	}

	// Risk parameters and pricing.
	lgd := lgdFor(req.ProductType)
	rw := rwFor(req.ProductType)
	ccf := float64(defaultCCF)
	if req.Revolving {
		if r, ok, err := ev.resolve("ccf.revolving.default", nil); err != nil {
			return Outcome{}, err
		} else if ok {
			ccf = r.Value.FieldOr("ccf", ccf)
		}
	}
	ead := exposureAtDefault(req, ccf)

	baseRate := float64(defaultBaseRate)
	if r, ok, err := ev.resolve("rate.base", nil); err != nil {
		return Outcome{}, err
	} else if ok {
		baseRate = r.Value.FieldOr("rate", baseRate)
	}

	rate := buildRate(score.PD, lgd, ead, rw, baseRate, maxRate, eqRateAdj+irgRateAdj, segRateAdj)
	if rate.Capped {
		ev.addReason("rate.max_interest", maxRateFrom, false,
			"offered rate capped at the statutory ceiling %.1f%%", maxRate)
		if m := e.metrics; m != nil {
			m.RateCapped.Inc()
		}
	}

	// Step 6: post-adjustment recheck. The floor above the base rate
	// can only push the rate up, so the ceiling is re-verified on the
	// final figure.
	if rate.FinalRate > maxRate {
		ev.addReason("rate.max_interest", maxRateFrom, true,
			"final rate %.2f%% exceeds the ceiling %.1f%%", rate.FinalRate, maxRate)
	}

	incomeMult := 1.5
	if req.ProductType == "credit" || req.ProductType == "credit_soho" {
		r, ok, err := ev.resolve("credit_loan.income_multiplier", regparam.Context{"employment_type": req.EmploymentType})
		if err != nil {
			return Outcome{}, err
		}
		if ok {
			incomeMult = r.Value.FieldOr("multiplier", incomeMult)
		}
	}
	approved := approvedLimit(req, ltvLimit, incomeMult, eqMult, irgLimitCap, largestSegMult)

	// Step 7: terminal state.
	decision := DecisionApproved
	switch {
	case ev.hard:
		decision = DecisionRejected
		approved = 0
	case float64(score.Score) < approveCutoff:
		decision = DecisionManualReview
		if floorRank >= promoteFloorRank {
			decision = DecisionApproved
			ev.addReason("segment.benefit", paramFrom(ev.params, "segment.benefit"), false,
				"guaranteed grade floor %s lifts a borderline score %d to approval",
				grading.GradeForRank(floorRank), score.Score)
		}
	}

	if decision == DecisionApproved {
		if req.EmploymentTenureMonths > 0 && req.EmploymentTenureMonths < softTenureMonths {
			decision = DecisionManualReview
			ev.addReason("policy.soft.employment_tenure", time.Time{}, false,
				"employment tenure %d months is below %d months", req.EmploymentTenureMonths, softTenureMonths)
		}
		if !req.IncomeVerified {
			decision = DecisionManualReview
			ev.addReason("policy.soft.income_unverified", time.Time{}, false,
				"declared income could not be verified")
		}
		if !rate.HurdleMet {
			decision = DecisionManualReview
			ev.addReason("policy.soft.raroc_hurdle", time.Time{}, false,
				"risk-adjusted return %.2f is below the hurdle", rate.RAROC)
			if m := e.metrics; m != nil {
				m.HurdleMisses.Inc()
			}
		}
	}

	if m := e.metrics; m != nil {
		m.Decisions.WithLabelValues(string(decision)).Inc()
	}
	e.logger.InfoContext(ctx, "policy decision",
		slog.String("decision", string(decision)),
		slog.Int("score", score.Score),
		slog.Float64("dsr", round4(dsr)),
		slog.Int("reasons", len(ev.reasons)))

	return Outcome{
		Decision:           decision,
		Score:              score.Score,
		Grade:              score.Grade,
		PD:                 score.PD,
		DSR:                round4(dsr),
		StressDSR:          round4(stressDSR),
		LTV:                round4(ltv),
		EAD:                ead,
		LGD:                lgd,
		RiskWeight:         rw,
		ApprovedAmount:     approved,
		ApprovedTermMonths: req.RequestedTermMonths,
		Rate:               rate,
		EnterpriseGrade:    effectiveEQ,
		IndustryGrade:      grades.Industry,
		Segments:           grades.Segments,
		Reasons:            ev.reasons,
		ParamsUsed:         ev.params,
	}, nil
}

// approvedLimit derives the amount the bank is willing to extend. The
// enterprise multiplier and the largest segment multiplier do not
// compound; the better of the two applies, and the industry cap always
// binds.
func approvedLimit(req Request, ltvLimit, incomeMult, eqMult, irgLimitCap, segMult float64) float64 {
	limit := req.RequestedAmount

	switch req.ProductType {
	case "credit", "credit_soho":
		benefitMult := eqMult
		if segMult > benefitMult {
			benefitMult = segMult
		}
		incomeCap := req.IncomeAnnual * incomeMult * benefitMult * irgLimitCap
		if incomeCap < limit {
			limit = incomeCap
		}
	case "mortgage":
		if req.CollateralValue > 0 {
			if cap := req.CollateralValue * ltvLimit / 100; cap < limit {
				limit = cap
			}
		}
	}
	return limit
}

// paramFrom finds the effective_from of an already-recorded parameter.
func paramFrom(refs []ParamRef, key string) time.Time {
	for _, p := range refs {
		if p.Key == key {
			return p.EffectiveFrom
		}
	}
	return time.Time{}
}
