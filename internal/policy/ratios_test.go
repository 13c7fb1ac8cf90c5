package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnnuityPayment(t *testing.T) {
	// 12 monthly payments at zero interest split the principal evenly.
	assert.InDelta(t, 1000, annuityPayment(12_000, 0, 12), 1e-9)

	// A 20 year loan at 5 percent lands near the 0.5 percent rule of
	// thumb the unstressed ratio uses.
	monthly := annuityPayment(100_000_000, 0.05, 240)
	assert.InDelta(t, 660_000, monthly, 10_000)

	// Zero term degrades to the approximation rather than dividing by zero.
	assert.InDelta(t, 50_000, annuityPayment(10_000_000, 0.05, 0), 1e-9)
}

func TestExposureAtDefault(t *testing.T) {
	term := Request{ProductType: "credit", RequestedAmount: 5_000_000}
	assert.Equal(t, 5_000_000.0, exposureAtDefault(term, 0.5))

	revolving := Request{
		ProductType:           "credit",
		Revolving:             true,
		ExistingCreditLine:    10_000_000,
		ExistingCreditBalance: 4_000_000,
	}
	// balance plus half the undrawn line
	assert.Equal(t, 7_000_000.0, exposureAtDefault(revolving, 0.5))

	// Overdrawn lines contribute no undrawn exposure.
	revolving.ExistingCreditBalance = 12_000_000
	assert.Equal(t, 12_000_000.0, exposureAtDefault(revolving, 0.5))
}

func TestBuildRateFloorsAndCaps(t *testing.T) {
	// Low risk prices near base + funding + operating, never below
	// base + 0.5.
	rb := buildRate(0.001, 0.25, 1_000_000, 0.35, 3.5, 20, -0.5, -1.1)
	assert.GreaterOrEqual(t, rb.FinalRate, 4.0)
	assert.False(t, rb.Capped)

	// Extreme risk hits the statutory ceiling.
	rb = buildRate(0.9, 0.45, 1_000_000, 0.75, 3.5, 20, 0, 0)
	assert.True(t, rb.Capped)
	assert.Equal(t, 20.0, rb.FinalRate)
	assert.False(t, rb.HurdleMet)
}

func TestDebtServiceRatioSaturatesWithoutIncome(t *testing.T) {
	req := Request{RequestedAmount: 10_000_000}
	assert.Equal(t, 999.0, debtServiceRatio(req))
	assert.Equal(t, 999.0, stressedDebtServiceRatio(req, 1.5))
}
