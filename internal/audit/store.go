package audit

import "context"

// Store persists audit records. Append-only: there is no update or delete
// path, by construction.
type Store interface {
	AppendDecision(ctx context.Context, rec DecisionRecord) error
	AppendParameterChange(ctx context.Context, rec ParameterChange) error
	ListDecisions(ctx context.Context, filter QueryFilter) ([]DecisionRecord, error)
	ListParameterChanges(ctx context.Context, filter QueryFilter) ([]ParameterChange, error)
}
