package policy

import "math"

// Loss given default and Basel risk weight by product.
var lgdByProduct = map[string]float64{
	"credit":      0.45,
	"credit_soho": 0.50,
	"mortgage":    0.25,
	"micro":       0.60,
}

var rwByProduct = map[string]float64{
	"credit":      0.75,
	"credit_soho": 0.75,
	"mortgage":    0.35,
	"micro":       1.00,
}

func lgdFor(product string) float64 {
	if v, ok := lgdByProduct[product]; ok {
		return v
	}
	return 0.45
}

func rwFor(product string) float64 {
	if v, ok := rwByProduct[product]; ok {
		return v
	}
	return 0.75
}

// newMonthlyFactor approximates the monthly installment of the
// requested amount at a 5 percent rate over a 20 year term.
const newMonthlyFactor = 0.005

// annuityPayment is the level monthly payment for a principal at the
// given annual rate over the term.
func annuityPayment(principal, annualRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return principal * newMonthlyFactor
	}
	monthly := annualRate / 12
	if monthly <= 0 {
		return principal / float64(termMonths)
	}
	return principal * monthly / (1 - math.Pow(1+monthly, float64(-termMonths)))
}

// debtServiceRatio is total monthly debt service over monthly income,
// in percent. Zero or negative income saturates the ratio.
func debtServiceRatio(req Request) float64 {
	monthlyIncome := req.IncomeAnnual / 12
	if monthlyIncome <= 0 {
		return 999
	}
	newMonthly := req.RequestedAmount * newMonthlyFactor
	return (req.ExistingMonthlyPayment + newMonthly) / monthlyIncome * 100
}

// stressedDebtServiceRatio reprices the new loan as an annuity at five
// percent plus the stress add-on and recomputes the ratio.
func stressedDebtServiceRatio(req Request, addonPct float64) float64 {
	monthlyIncome := req.IncomeAnnual / 12
	if monthlyIncome <= 0 {
		return 999
	}
	stressedRate := 0.05 + addonPct/100
	stressedMonthly := annuityPayment(req.RequestedAmount, stressedRate, req.RequestedTermMonths)
	return (req.ExistingMonthlyPayment + stressedMonthly) / monthlyIncome * 100
}

// loanToValue is the requested amount over the collateral value in
// percent. Zero for non-mortgage products or missing collateral.
func loanToValue(req Request) float64 {
	if req.ProductType != "mortgage" || req.CollateralValue <= 0 {
		return 0
	}
	return req.RequestedAmount / req.CollateralValue * 100
}

// exposureAtDefault is the drawn balance plus the credit conversion
// factor share of the undrawn line for revolving facilities, and the
// requested amount for term loans.
func exposureAtDefault(req Request, ccf float64) float64 {
	if !req.Revolving {
		return req.RequestedAmount
	}
	unused := math.Max(0, req.ExistingCreditLine-req.ExistingCreditBalance)
	return req.ExistingCreditBalance + ccf*unused
}

// buildRate assembles the offered rate from its components, caps it at
// the statutory ceiling, floors it just above the base rate and prices
// the risk-adjusted return against the hurdle.
func buildRate(pd, lgd, ead, rw, baseRate, maxRate, gradeAdj, segDiscount float64) RateBreakdown {
	el := pd * lgd
	creditSpread := el * 100 * 2.5
	const (
		fundingCost   = 1.2
		operatingCost = 0.8
		hurdleRate    = 0.15
	)

	raw := baseRate + creditSpread + fundingCost + operatingCost + gradeAdj + segDiscount
	capped := raw > maxRate
	final := math.Min(raw, maxRate)
	final = math.Max(final, baseRate+0.5)

	raroc := 0.0
	if capital := ead * rw * 0.08; capital > 0 {
		raroc = (final/100*ead - el*ead) / capital
	}

	return RateBreakdown{
		BaseRate:        baseRate,
		CreditSpread:    round4(creditSpread),
		FundingCost:     fundingCost,
		OperatingCost:   operatingCost,
		GradeAdjustment: gradeAdj,
		SegmentDiscount: segDiscount,
		FinalRate:       round4(final),
		Capped:          capped,
		RAROC:           round4(raroc),
		HurdleMet:       raroc >= hurdleRate,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
