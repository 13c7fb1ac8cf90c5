package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Model is the primary scoring path.
type Model interface {
	Predict(ctx context.Context, inp Input) (probability float64, version string, err error)
}

// ModelClient calls the external model service. Failures of any kind,
// including out-of-domain responses, are errors; the adapter decides
// what to do with them.
type ModelClient struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewModelClient creates a model client with a per-call timeout. The
// breaker opens after three consecutive failures.
func NewModelClient(url string, timeout time.Duration) *ModelClient {
	settings := gobreaker.Settings{
		Name:    "scoring-model",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &ModelClient{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// featureVector is the fixed, versioned model input schema.
type featureVector struct {
	SchemaVersion                string  `json:"schema_version"`
	ProductType                  string  `json:"product_type"`
	RequestedAmount              float64 `json:"requested_amount"`
	RequestedTermMonths          int     `json:"requested_term_months"`
	SelfEmployed                 bool    `json:"self_employed"`
	Age                          int     `json:"age"`
	IncomeAnnual                 float64 `json:"income_annual"`
	ExistingMonthlyPayment       float64 `json:"existing_monthly_payment"`
	BureauScore                  int     `json:"bureau_score"`
	DelinquencyCount12M          int     `json:"delinquency_count_12m"`
	WorstDelinquencyStatus       int     `json:"worst_delinquency_status"`
	InquiryCount3M               int     `json:"inquiry_count_3m"`
	TelecomNoDelinquency         bool    `json:"telecom_no_delinquency"`
	HealthInsurancePaidMonths12M int     `json:"health_insurance_paid_months_12m"`
	BusinessDurationMonths       int     `json:"business_duration_months"`
	TaxFilingCount               int     `json:"tax_filing_count"`
}

const featureSchemaVersion = "v1"

type predictResponse struct {
	Probability  float64 `json:"probability"`
	ModelVersion string  `json:"model_version"`
}

func (c *ModelClient) Predict(ctx context.Context, inp Input) (float64, string, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.predict(ctx, inp)
	})
	if err != nil {
		return 0, "", err
	}
	out := result.(predictResponse)
	return out.Probability, out.ModelVersion, nil
}

func (c *ModelClient) predict(ctx context.Context, inp Input) (predictResponse, error) {
	body, err := json.Marshal(featureVector{
		SchemaVersion:                featureSchemaVersion,
		ProductType:                  inp.ProductType,
		RequestedAmount:              inp.RequestedAmount,
		RequestedTermMonths:          inp.RequestedTermMonths,
		SelfEmployed:                 inp.SelfEmployed,
		Age:                          inp.Age,
		IncomeAnnual:                 inp.IncomeAnnual,
		ExistingMonthlyPayment:       inp.ExistingMonthlyPayment,
		BureauScore:                  inp.BureauScore,
		DelinquencyCount12M:          inp.DelinquencyCount12M,
		WorstDelinquencyStatus:       inp.WorstDelinquencyStatus,
		InquiryCount3M:               inp.InquiryCount3M,
		TelecomNoDelinquency:         inp.TelecomNoDelinquency,
		HealthInsurancePaidMonths12M: inp.HealthInsurancePaidMonths12M,
		BusinessDurationMonths:       inp.BusinessDurationMonths,
		TaxFilingCount:               inp.TaxFilingCount,
	})
	if err != nil {
		return predictResponse{}, fmt.Errorf("marshal feature vector: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return predictResponse{}, fmt.Errorf("build model request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return predictResponse{}, fmt.Errorf("call model service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return predictResponse{}, fmt.Errorf("model service returned %d", resp.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return predictResponse{}, fmt.Errorf("decode model response: %w", err)
	}
	if out.Probability < 0 || out.Probability >= 1 {
		return predictResponse{}, fmt.Errorf("model probability out of domain: %f", out.Probability)
	}
	return out, nil
}
