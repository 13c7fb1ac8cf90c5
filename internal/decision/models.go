// Package decision orchestrates one loan evaluation end to end: bureau
// fetch, grading, scoring, policy and the audit write. A decision is
// only reported to the caller after it is durably recorded.
package decision

import (
	"time"

	"github.com/google/uuid"

	"lendgate/internal/bureau"
	"lendgate/internal/grading"
	"lendgate/internal/policy"
)

// appealWindow is how long a refused or escalated applicant has to
// contest the outcome.
const appealWindow = 30 * 24 * time.Hour

// Application is one evaluation request. ApplicantHash is the salted
// one-way hash of the national identifier; the raw identifier never
// enters the engine.
type Application struct {
	ApplicantHash string

	// AsOf pins the parameter snapshot; zero means now. Re-evaluating
	// with the same AsOf reproduces the same decision.
	AsOf time.Time

	Loan    policy.Request
	Profile grading.Profile

	HealthInsurancePaidMonths12M int
	BusinessDurationMonths       int
	TaxFilingCount               int
}

// Result is the public outcome of one evaluation.
type Result struct {
	ID            uuid.UUID               `json:"id"`
	Decision      policy.Decision         `json:"decision"`
	Score         int                     `json:"score"`
	Grade         string                  `json:"grade"`
	PD            float64                 `json:"pd"`
	ApprovedRate  float64                 `json:"approved_rate"`
	ApprovedLimit float64                 `json:"approved_limit"`
	TermMonths    int                     `json:"term_months"`
	Rate          policy.RateBreakdown    `json:"rate_breakdown"`
	DSR           float64                 `json:"dsr"`
	StressDSR     float64                 `json:"stress_dsr"`
	LTV           float64                 `json:"ltv"`
	Enterprise    grading.EnterpriseGrade `json:"enterprise_grade"`
	Industry      grading.IndustryGrade   `json:"industry_grade"`
	Segments      []string                `json:"segments,omitempty"`
	Reasons       []policy.Reason         `json:"reasons,omitempty"`

	FallbackUsed bool          `json:"fallback_used"`
	ModelVersion string        `json:"model_version,omitempty"`
	BureauSource bureau.Source `json:"bureau_source"`

	AppealDeadline *time.Time `json:"appeal_deadline,omitempty"`
	EvaluatedAt    time.Time  `json:"evaluated_at"`
}
