package scoring

import "math"

// estimatePD is the deterministic logistic estimator used when the
// model service cannot answer. The coefficients are a fitted
// approximation of the production scorecard; the estimate is
// intentionally conservative on thin files.
func estimatePD(inp Input) float64 {
	logOdds := -3.5

	// Bureau score, centered at 700.
	logOdds += float64(inp.BureauScore-700) / 100 * -1.8

	// Delinquency history.
	logOdds += float64(inp.DelinquencyCount12M) * 0.6
	logOdds += float64(inp.WorstDelinquencyStatus) * 0.8

	// Debt service pressure above the 40% line.
	incomeMonthly := inp.IncomeAnnual / 12
	newMonthly := inp.RequestedAmount * 0.005
	dsr := 999.0
	if incomeMonthly > 0 {
		dsr = (inp.ExistingMonthlyPayment + newMonthly) / incomeMonthly * 100
	}
	logOdds += math.Max(0, dsr-40) * 0.03

	// Low income dampener.
	logOdds += math.Log1p(50000/math.Max(inp.IncomeAnnual, 1)) * 0.5

	// Recent credit inquiries.
	logOdds += float64(inp.InquiryCount3M) * 0.3

	// Alternative data offsets.
	if inp.TelecomNoDelinquency {
		logOdds -= 0.3
	}
	logOdds -= float64(inp.HealthInsurancePaidMonths12M) / 12 * 0.4

	// Self-employment risk adds.
	if inp.SelfEmployed {
		logOdds += 0.3
		if inp.BusinessDurationMonths < 24 {
			logOdds += 0.4
		}
		if inp.TaxFilingCount < 2 {
			logOdds += 0.3
		}
	}

	return 1 / (1 + math.Exp(-logOdds))
}

// clampPD bounds a probability away from the degenerate ends.
func clampPD(pd float64) float64 {
	if pd < 0.001 {
		return 0.001
	}
	if pd > 0.999 {
		return 0.999
	}
	return pd
}
