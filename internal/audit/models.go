// Package audit is the append-only record of every decision and every
// parameter change, required for the four-eyes control and regulatory
// disclosure. Records are immutable after creation.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// ReasonRecord is one explanation tuple from a decision: the rule key,
// the exact version used (by effective_from), and the human-readable
// explanation. Sufficient for disclosure without re-deriving the
// computation.
type ReasonRecord struct {
	RuleKey           string    `json:"rule_key"`
	RuleEffectiveFrom time.Time `json:"rule_effective_from"`
	Explanation       string    `json:"explanation"`
}

// ParamVersionRef pins a resolved parameter version used by a decision.
type ParamVersionRef struct {
	Key           string    `json:"key"`
	EffectiveFrom time.Time `json:"effective_from"`
}

// DecisionRecord is the audit unit for one evaluated application. It is
// written atomically; a decision that could not be recorded is reported
// as failed to the caller.
type DecisionRecord struct {
	ID            uuid.UUID         `json:"id"`
	RequestID     string            `json:"request_id,omitempty"`
	ApplicantHash string            `json:"applicant_hash"`
	ProductType   string            `json:"product_type"`
	AsOf          time.Time         `json:"as_of"`
	Decision      string            `json:"decision"`
	Score         int               `json:"score"`
	Grade         string            `json:"grade"`
	Segments      []string          `json:"segments,omitempty"`
	ApprovedRate  float64           `json:"approved_rate"`
	ApprovedLimit float64           `json:"approved_limit"`
	FallbackUsed  bool              `json:"fallback_used"`
	ModelVersion  string            `json:"model_version,omitempty"`
	Reasons       []ReasonRecord    `json:"reasons,omitempty"`
	ParamsUsed    []ParamVersionRef `json:"params_used,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// ParameterChangeAction enumerates governed parameter lifecycle events.
type ParameterChangeAction string

const (
	ActionProposed    ParameterChangeAction = "proposed"
	ActionApproved    ParameterChangeAction = "approved"
	ActionDeactivated ParameterChangeAction = "deactivated"
)

// ParameterChange is the audit unit for one parameter lifecycle event.
type ParameterChange struct {
	ID           uuid.UUID             `json:"id"`
	ParamID      uuid.UUID             `json:"param_id"`
	ParamKey     string                `json:"param_key"`
	Action       ParameterChangeAction `json:"action"`
	Actor        string                `json:"actor"`
	ChangeReason string                `json:"change_reason,omitempty"`
	RequestID    string                `json:"request_id,omitempty"`
	OccurredAt   time.Time             `json:"occurred_at"`
}

// QueryFilter narrows audit reads for auditors and regulators.
type QueryFilter struct {
	From     time.Time
	To       time.Time
	ParamKey string
	Decision string
	Limit    int
}
