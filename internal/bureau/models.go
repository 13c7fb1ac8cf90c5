// Package bureau fetches applicant credit attributes from external
// credit bureaus. Lookups are keyed by a salted one-way hash of the
// national identifier; the raw identifier never reaches this package.
//
// Fetch order: primary bureau, secondary bureau, cached report, then a
// conservative default. Each upstream sits behind its own circuit
// breaker. Fetches are idempotent and safe to retry.
package bureau

import "time"

// Source identifies where a report came from.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceCached    Source = "cached"
	SourceDefault   Source = "default"
)

// Default report values used when every upstream and the cache fail. A
// defaulted report is flagged so downstream policy can route to manual
// review instead of trusting it.
const (
	defaultScore = 700
	defaultGrade = "BB"
)

// Report is one bureau response.
type Report struct {
	Source                 Source    `json:"source"`
	Score                  int       `json:"score"`
	Grade                  string    `json:"grade"`
	DelinquencyCount12M    int       `json:"delinquency_count_12m"`
	WorstDelinquencyStatus int       `json:"worst_delinquency_status"`
	OpenLoanCount          int       `json:"open_loan_count"`
	TotalLoanBalance       int64     `json:"total_loan_balance"`
	InquiryCount3M         int       `json:"inquiry_count_3m"`
	InquiryCount6M         int       `json:"inquiry_count_6m"`
	TelecomNoDelinquency   bool      `json:"telecom_no_delinquency"`
	QueriedAt              time.Time `json:"queried_at"`
	Fallback               bool      `json:"fallback"`
}

func defaultReport(now time.Time) Report {
	return Report{
		Source:               SourceDefault,
		Score:                defaultScore,
		Grade:                defaultGrade,
		TelecomNoDelinquency: true,
		QueriedAt:            now,
		Fallback:             true,
	}
}
