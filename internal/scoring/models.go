// Package scoring turns applicant features into a probability of
// default and a scaled score. The primary path is the external model
// service; the deterministic logistic estimator takes over whenever the
// model cannot produce a usable answer.
package scoring

// Input is the feature set for one scoring call.
type Input struct {
	ProductType         string
	RequestedAmount     float64
	RequestedTermMonths int

	SelfEmployed           bool
	Age                    int
	IncomeAnnual           float64
	ExistingMonthlyPayment float64

	BureauScore            int
	DelinquencyCount12M    int
	WorstDelinquencyStatus int
	InquiryCount3M         int

	TelecomNoDelinquency         bool
	HealthInsurancePaidMonths12M int

	BusinessDurationMonths int
	TaxFilingCount         int

	// IndustryPDAdjustment scales the estimated PD by (1 + adjustment)
	// after the raw estimate, model and fallback alike.
	IndustryPDAdjustment float64
}

// Result is one scoring outcome with its provenance.
type Result struct {
	Score          int
	Grade          string
	RawProbability float64
	PD             float64
	FallbackUsed   bool
	ModelVersion   string
}

// gradeBands maps score ranges to credit grades, highest first. Bands
// are inclusive on both ends.
var gradeBands = []struct {
	grade string
	lower int
	upper int
}{
	{"AAA", 870, 900},
	{"AA", 840, 869},
	{"A", 805, 839},
	{"BBB", 750, 804},
	{"BB", 665, 749},
	{"B", 600, 664},
	{"CCC", 515, 599},
	{"CC", 445, 514},
	{"C", 351, 444},
	{"D", 0, 350},
}

// GradeForScore maps a scaled score onto the grade ladder.
func GradeForScore(score int) string {
	for _, band := range gradeBands {
		if score >= band.lower && score <= band.upper {
			return band.grade
		}
	}
	return "D"
}
