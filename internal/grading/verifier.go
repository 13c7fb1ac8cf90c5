package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// LicenseVerifier confirms a professional license against the external
// registry and returns the segment code it grants, or "" when the
// license does not verify.
type LicenseVerifier interface {
	VerifyLicense(ctx context.Context, residentHash, licenseType, licenseNumber string) (string, error)
}

// licenseTypes maps occupation codes to registry license types.
var licenseTypes = map[string]string{
	"MD001":  "doctor",
	"MD002":  "dentist",
	"MD003":  "oriental_medicine",
	"JD001":  "lawyer",
	"JD002":  "legal_scrivener",
	"JD003":  "cpa",
	"ART001": "artist",
}

// RegistryClient verifies licenses against the profession registry API.
type RegistryClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRegistryClient creates a registry client with the given call
// timeout.
func NewRegistryClient(baseURL, apiKey string, timeout time.Duration) *RegistryClient {
	return &RegistryClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type licenseRequest struct {
	ResidentHash  string `json:"resident_hash"`
	LicenseType   string `json:"license_type"`
	LicenseNumber string `json:"license_number"`
}

type licenseResponse struct {
	Valid       bool   `json:"valid"`
	SegmentCode string `json:"segment_code"`
}

func (c *RegistryClient) VerifyLicense(ctx context.Context, residentHash, licenseType, licenseNumber string) (string, error) {
	body, err := json.Marshal(licenseRequest{
		ResidentHash:  residentHash,
		LicenseType:   licenseType,
		LicenseNumber: licenseNumber,
	})
	if err != nil {
		return "", fmt.Errorf("marshal license request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/profession/license", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build license request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call profession registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("profession registry returned %d", resp.StatusCode)
	}

	var out licenseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode registry response: %w", err)
	}
	if !out.Valid {
		return "", nil
	}
	return out.SegmentCode, nil
}
