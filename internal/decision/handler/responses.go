package handler

import (
	"time"

	"lendgate/internal/decision"
	"lendgate/internal/policy"
)

// ReasonResponse is one disclosed justification tuple.
type ReasonResponse struct {
	RuleKey           string `json:"rule_key"`
	RuleEffectiveFrom string `json:"rule_version_effective_from,omitempty"`
	Explanation       string `json:"explanation"`
}

// EvaluateResponse is the wire form of one decision.
type EvaluateResponse struct {
	ID             string               `json:"id"`
	Decision       string               `json:"decision"`
	Score          int                  `json:"score"`
	Grade          string               `json:"grade"`
	ApprovedRate   float64              `json:"approved_rate"`
	ApprovedLimit  float64              `json:"approved_limit"`
	TermMonths     int                  `json:"term_months"`
	RateBreakdown  policy.RateBreakdown `json:"rate_breakdown"`
	DSR            float64              `json:"dsr"`
	StressDSR      float64              `json:"stress_dsr"`
	LTV            float64              `json:"ltv,omitempty"`
	Enterprise     string               `json:"enterprise_grade,omitempty"`
	Industry       string               `json:"industry_grade,omitempty"`
	Segments       []string             `json:"segments,omitempty"`
	Reasons        []ReasonResponse     `json:"rejection_reasons,omitempty"`
	FallbackUsed   bool                 `json:"fallback_used"`
	BureauSource   string               `json:"bureau_source"`
	AppealDeadline string               `json:"appeal_deadline,omitempty"`
	EvaluatedAt    string               `json:"evaluated_at"`
}

func fromResult(res *decision.Result) EvaluateResponse {
	reasons := make([]ReasonResponse, 0, len(res.Reasons))
	for _, r := range res.Reasons {
		rr := ReasonResponse{RuleKey: r.RuleKey, Explanation: r.Explanation}
		if !r.RuleEffectiveFrom.IsZero() {
			rr.RuleEffectiveFrom = r.RuleEffectiveFrom.Format(time.RFC3339)
		}
		reasons = append(reasons, rr)
	}

	out := EvaluateResponse{
		ID:            res.ID.String(),
		Decision:      string(res.Decision),
		Score:         res.Score,
		Grade:         res.Grade,
		ApprovedRate:  res.ApprovedRate,
		ApprovedLimit: res.ApprovedLimit,
		TermMonths:    res.TermMonths,
		RateBreakdown: res.Rate,
		DSR:           res.DSR,
		StressDSR:     res.StressDSR,
		LTV:           res.LTV,
		Enterprise:    string(res.Enterprise),
		Industry:      string(res.Industry),
		Segments:      res.Segments,
		Reasons:       reasons,
		FallbackUsed:  res.FallbackUsed,
		BureauSource:  string(res.BureauSource),
		EvaluatedAt:   res.EvaluatedAt.Format(time.RFC3339),
	}
	if res.AppealDeadline != nil {
		out.AppealDeadline = res.AppealDeadline.Format(time.RFC3339)
	}
	return out
}
