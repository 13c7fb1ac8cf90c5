package handler

import (
	"time"

	"lendgate/internal/decision"
	"lendgate/internal/grading"
	"lendgate/internal/policy"
	dErrors "lendgate/pkg/domain-errors"
)

// EvaluateRequest is the wire form of one application. Structural
// validation happens in the service; this layer only parses.
type EvaluateRequest struct {
	ApplicantHash string `json:"applicant_hash"`
	AsOf          string `json:"as_of,omitempty"`

	ProductType     string  `json:"product_type"`
	RequestedAmount float64 `json:"requested_amount"`
	TermMonths      int     `json:"term_months"`
	RateType        string  `json:"rate_type,omitempty"`
	Region          string  `json:"region,omitempty"`

	AreaType        string  `json:"area_type,omitempty"`
	MultiHomeOwner  bool    `json:"multi_home_owner,omitempty"`
	CollateralValue float64 `json:"collateral_value,omitempty"`

	IncomeAnnual           float64 `json:"income_annual"`
	IncomeVerified         bool    `json:"income_verified"`
	ExistingMonthlyPayment float64 `json:"existing_monthly_payment,omitempty"`
	EmploymentType         string  `json:"employment_type,omitempty"`
	EmploymentTenureMonths int     `json:"employment_tenure_months,omitempty"`

	Revolving             bool    `json:"revolving,omitempty"`
	ExistingCreditLine    float64 `json:"existing_credit_line,omitempty"`
	ExistingCreditBalance float64 `json:"existing_credit_balance,omitempty"`

	Age             int    `json:"age,omitempty"`
	OccupationCode  string `json:"occupation_code,omitempty"`
	LicenseNumber   string `json:"license_number,omitempty"`
	MilitaryActive  bool   `json:"military_active,omitempty"`
	EmployerRegHash string `json:"employer_reg_hash,omitempty"`
	EmployerName    string `json:"employer_name,omitempty"`
	IndustryCode    string `json:"industry_code,omitempty"`

	HealthInsurancePaidMonths12M int `json:"health_insurance_paid_months_12m,omitempty"`
	BusinessDurationMonths       int `json:"business_duration_months,omitempty"`
	TaxFilingCount               int `json:"tax_filing_count,omitempty"`
}

// ToApplication converts the wire form to the domain application.
func (r EvaluateRequest) ToApplication() (decision.Application, error) {
	var asOf time.Time
	if r.AsOf != "" {
		t, err := time.Parse(time.RFC3339, r.AsOf)
		if err != nil {
			return decision.Application{}, dErrors.Newf(dErrors.CodeValidation, "as_of must be RFC 3339: %v", err)
		}
		asOf = t
	}

	return decision.Application{
		ApplicantHash: r.ApplicantHash,
		AsOf:          asOf,
		Loan: policy.Request{
			ProductType:            r.ProductType,
			RequestedAmount:        r.RequestedAmount,
			RequestedTermMonths:    r.TermMonths,
			RateType:               r.RateType,
			Region:                 r.Region,
			AreaType:               r.AreaType,
			MultiHomeOwner:         r.MultiHomeOwner,
			CollateralValue:        r.CollateralValue,
			IncomeAnnual:           r.IncomeAnnual,
			IncomeVerified:         r.IncomeVerified,
			ExistingMonthlyPayment: r.ExistingMonthlyPayment,
			EmploymentType:         r.EmploymentType,
			EmploymentTenureMonths: r.EmploymentTenureMonths,
			Revolving:              r.Revolving,
			ExistingCreditLine:     r.ExistingCreditLine,
			ExistingCreditBalance:  r.ExistingCreditBalance,
		},
		Profile: grading.Profile{
			Age:             r.Age,
			OccupationCode:  r.OccupationCode,
			LicenseNumber:   r.LicenseNumber,
			ResidentHash:    r.ApplicantHash,
			MilitaryActive:  r.MilitaryActive,
			EmployerRegHash: r.EmployerRegHash,
			EmployerName:    r.EmployerName,
			IndustryCode:    r.IndustryCode,
		},
		HealthInsurancePaidMonths12M: r.HealthInsurancePaidMonths12M,
		BusinessDurationMonths:       r.BusinessDurationMonths,
		TaxFilingCount:               r.TaxFilingCount,
	}, nil
}
