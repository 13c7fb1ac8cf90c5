package bureau

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Upstream is one credit bureau endpoint behind its own circuit
// breaker. Breaker state is per upstream: a tripped primary does not
// block the secondary.
type Upstream struct {
	source  Source
	url     string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewUpstream creates a bureau upstream client. The breaker opens after
// three consecutive failures and probes again after 30 seconds.
func NewUpstream(source Source, url, apiKey string, timeout time.Duration) *Upstream {
	settings := gobreaker.Settings{
		Name:    string(source) + "-bureau",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &Upstream{
		source:  source,
		url:     url,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

type scoreRequest struct {
	ResidentHash string `json:"resident_hash"`
}

type scoreResponse struct {
	CreditScore            int    `json:"credit_score"`
	CreditGrade            string `json:"credit_grade"`
	DelinquencyCount12M    int    `json:"delinquency_count_12m"`
	WorstDelinquencyStatus int    `json:"worst_delinquency_status"`
	OpenLoanCount          int    `json:"open_loan_count"`
	TotalLoanBalance       int64  `json:"total_loan_balance"`
	InquiryCount3M         int    `json:"inquiry_count_3m"`
	InquiryCount6M         int    `json:"inquiry_count_6m"`
	TelecomNoDelinquency   bool   `json:"telecom_no_delinquency"`
}

// Fetch queries the bureau through the circuit breaker.
func (u *Upstream) Fetch(ctx context.Context, residentHash string) (*Report, error) {
	result, err := u.breaker.Execute(func() (any, error) {
		return u.query(ctx, residentHash)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Report), nil
}

func (u *Upstream) query(ctx context.Context, residentHash string) (*Report, error) {
	body, err := json.Marshal(scoreRequest{ResidentHash: residentHash})
	if err != nil {
		return nil, fmt.Errorf("marshal bureau request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build bureau request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.apiKey != "" {
		req.Header.Set("X-API-Key", u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s bureau: %w", u.source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s bureau returned %d", u.source, resp.StatusCode)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s bureau response: %w", u.source, err)
	}

	return &Report{
		Source:                 u.source,
		Score:                  out.CreditScore,
		Grade:                  out.CreditGrade,
		DelinquencyCount12M:    out.DelinquencyCount12M,
		WorstDelinquencyStatus: out.WorstDelinquencyStatus,
		OpenLoanCount:          out.OpenLoanCount,
		TotalLoanBalance:       out.TotalLoanBalance,
		InquiryCount3M:         out.InquiryCount3M,
		InquiryCount6M:         out.InquiryCount6M,
		TelecomNoDelinquency:   out.TelecomNoDelinquency,
		QueriedAt:              time.Now(),
	}, nil
}
