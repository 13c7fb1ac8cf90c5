package handler

import (
	"time"

	"lendgate/internal/regparam"
	dErrors "lendgate/pkg/domain-errors"
)

// ProposeRequest is the wire form of a new parameter version.
type ProposeRequest struct {
	Key           string             `json:"param_key"`
	Category      string             `json:"category"`
	PhaseLabel    string             `json:"phase_label,omitempty"`
	Fields        map[string]float64 `json:"fields"`
	Unit          string             `json:"unit,omitempty"`
	ModelDerived  bool               `json:"model_derived,omitempty"`
	Condition     map[string]string  `json:"condition,omitempty"`
	EffectiveFrom string             `json:"effective_from"`
	EffectiveTo   string             `json:"effective_to,omitempty"`
	LegalBasis    string             `json:"legal_basis"`
	Description   string             `json:"description,omitempty"`
	ChangeReason  string             `json:"change_reason"`
}

// ToProposal converts the wire form into the domain proposal, parsing the
// effective dates.
func (r ProposeRequest) ToProposal() (regparam.Proposal, error) {
	from, err := parseDate(r.EffectiveFrom)
	if err != nil {
		return regparam.Proposal{}, dErrors.New(dErrors.CodeValidation, "effective_from must be an RFC 3339 date")
	}

	var to *time.Time
	if r.EffectiveTo != "" {
		t, err := parseDate(r.EffectiveTo)
		if err != nil {
			return regparam.Proposal{}, dErrors.New(dErrors.CodeValidation, "effective_to must be an RFC 3339 date")
		}
		to = &t
	}

	value := regparam.FixedValue(r.Fields)
	value.Unit = r.Unit
	if r.ModelDerived {
		value = regparam.ModelDerived()
	}

	return regparam.Proposal{
		Key:           r.Key,
		Category:      r.Category,
		PhaseLabel:    r.PhaseLabel,
		Value:         value,
		Condition:     regparam.Condition(r.Condition),
		EffectiveFrom: from,
		EffectiveTo:   to,
		LegalBasis:    r.LegalBasis,
		Description:   r.Description,
		ChangeReason:  r.ChangeReason,
	}, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
