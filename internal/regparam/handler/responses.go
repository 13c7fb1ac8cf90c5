package handler

import (
	"time"

	"lendgate/internal/regparam"
)

// ParameterResponse is the wire form of one parameter version.
type ParameterResponse struct {
	ID            string             `json:"id"`
	Key           string             `json:"param_key"`
	Category      string             `json:"category"`
	PhaseLabel    string             `json:"phase_label,omitempty"`
	Fields        map[string]float64 `json:"fields,omitempty"`
	Unit          string             `json:"unit,omitempty"`
	ModelDerived  bool               `json:"model_derived,omitempty"`
	Condition     map[string]string  `json:"condition,omitempty"`
	EffectiveFrom time.Time          `json:"effective_from"`
	EffectiveTo   *time.Time         `json:"effective_to,omitempty"`
	IsActive      bool               `json:"is_active"`
	LegalBasis    string             `json:"legal_basis,omitempty"`
	Description   string             `json:"description,omitempty"`
	CreatedBy     string             `json:"created_by,omitempty"`
	ApprovedBy    string             `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time         `json:"approved_at,omitempty"`
	ChangeReason  string             `json:"change_reason,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ListResponse wraps a page of parameter versions.
type ListResponse struct {
	Parameters []ParameterResponse `json:"parameters"`
	Total      int                 `json:"total"`
}

func fromParameter(p regparam.Parameter) ParameterResponse {
	return ParameterResponse{
		ID:            p.ID.String(),
		Key:           p.Key,
		Category:      p.Category,
		PhaseLabel:    p.PhaseLabel,
		Fields:        p.Value.Fields,
		Unit:          p.Value.Unit,
		ModelDerived:  p.Value.Kind == regparam.ValueModelDerived,
		Condition:     p.Condition,
		EffectiveFrom: p.EffectiveFrom,
		EffectiveTo:   p.EffectiveTo,
		IsActive:      p.IsActive,
		LegalBasis:    p.LegalBasis,
		Description:   p.Description,
		CreatedBy:     p.CreatedBy,
		ApprovedBy:    p.ApprovedBy,
		ApprovedAt:    p.ApprovedAt,
		ChangeReason:  p.ChangeReason,
		CreatedAt:     p.CreatedAt,
	}
}

func fromParameters(params []regparam.Parameter) []ParameterResponse {
	out := make([]ParameterResponse, 0, len(params))
	for _, p := range params {
		out = append(out, fromParameter(p))
	}
	return out
}
