// Package policy turns a scored, graded application into a final
// decision. Every threshold it applies is read through the parameter
// resolver at the evaluation time, and every adjustment or rejection
// is justified by a reason naming the governing parameter.
package policy

import (
	"time"

	"lendgate/internal/grading"
)

// Decision is the terminal state of an application.
type Decision string

const (
	DecisionApproved     Decision = "approved"
	DecisionManualReview Decision = "manual_review"
	DecisionRejected     Decision = "rejected"
)

// Request is the application slice the policy engine needs. Bureau and
// scoring attributes arrive separately as their own results.
type Request struct {
	ProductType         string
	RequestedAmount     float64
	RequestedTermMonths int

	// RateType is variable, mixed_short, mixed_long or fixed. Fixed
	// rate loans carry no stress add-on.
	RateType string
	Region   string

	// AreaType classifies the collateral location: general, regulated
	// or speculation. Mortgage only.
	AreaType        string
	MultiHomeOwner  bool
	CollateralValue float64

	IncomeAnnual           float64
	IncomeVerified         bool
	ExistingMonthlyPayment float64
	EmploymentType         string
	EmploymentTenureMonths int

	// Revolving facilities expose the undrawn line through a credit
	// conversion factor instead of the requested amount.
	Revolving             bool
	ExistingCreditLine    float64
	ExistingCreditBalance float64

	WorstDelinquencyStatus int
}

// Reason is one justification tuple. Hard marks an unconditional cap
// violation; the assembler orders those first.
type Reason struct {
	RuleKey           string    `json:"rule_key"`
	RuleEffectiveFrom time.Time `json:"rule_version_effective_from"`
	Explanation       string    `json:"explanation"`
	Hard              bool      `json:"-"`
}

// ParamRef records one resolved parameter version the decision used.
type ParamRef struct {
	Key           string    `json:"key"`
	EffectiveFrom time.Time `json:"effective_from"`
}

// RateBreakdown decomposes the offered rate so each component can be
// disclosed and reconciled separately.
type RateBreakdown struct {
	BaseRate        float64 `json:"base_rate"`
	CreditSpread    float64 `json:"credit_spread"`
	FundingCost     float64 `json:"funding_cost"`
	OperatingCost   float64 `json:"operating_cost"`
	GradeAdjustment float64 `json:"grade_adjustment"`
	SegmentDiscount float64 `json:"segment_discount"`
	FinalRate       float64 `json:"final_rate"`
	Capped          bool    `json:"capped"`
	RAROC           float64 `json:"raroc"`
	HurdleMet       bool    `json:"hurdle_met"`
}

// Outcome is the full policy decision before assembly into the public
// response. Immutable once returned.
type Outcome struct {
	Decision Decision

	Score int
	Grade string
	PD    float64

	DSR       float64
	StressDSR float64
	LTV       float64

	EAD        float64
	LGD        float64
	RiskWeight float64

	ApprovedAmount     float64
	ApprovedTermMonths int
	Rate               RateBreakdown

	EnterpriseGrade grading.EnterpriseGrade
	IndustryGrade   grading.IndustryGrade
	Segments        []string

	Reasons    []Reason
	ParamsUsed []ParamRef
}
