package regparam

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"lendgate/internal/audit"
	"lendgate/internal/regparam/metrics"
	dErrors "lendgate/pkg/domain-errors"
	"lendgate/pkg/requestcontext"
)

// ChangeRecorder is the audit port for parameter lifecycle events.
// Writes are fail-closed: a lifecycle change that cannot be audited is
// refused.
type ChangeRecorder interface {
	RecordParameterChange(ctx context.Context, rec audit.ParameterChange) error
}

// Service is the governed write path for regulation parameters. The
// four-eyes rule is enforced here, not in callers: a version may only
// become active once a principal distinct from its creator approves it.
type Service struct {
	store    Store
	cache    Cache
	recorder ChangeRecorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceCache attaches the resolver cache so writes invalidate it.
func WithServiceCache(cache Cache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

// WithServiceLogger attaches a logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithServiceMetrics attaches metrics.
func WithServiceMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates the parameter administration service.
func NewService(store Store, recorder ChangeRecorder, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("parameter store is required")
	}
	if recorder == nil {
		return nil, errors.New("audit recorder is required")
	}
	svc := &Service{store: store, recorder: recorder}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Proposal carries the fields of a new parameter version.
type Proposal struct {
	Key           string
	Category      string
	PhaseLabel    string
	Value         Value
	Condition     Condition
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	LegalBasis    string
	Description   string
	ChangeReason  string
}

// Propose creates a pending (inactive) parameter version. It becomes
// effective only after a distinct principal approves it.
func (s *Service) Propose(ctx context.Context, prop Proposal, createdBy string) (*Parameter, error) {
	if err := validateProposal(prop, createdBy); err != nil {
		return nil, err
	}

	p := Parameter{
		ID:            uuid.New(),
		Key:           prop.Key,
		Category:      prop.Category,
		PhaseLabel:    prop.PhaseLabel,
		Value:         prop.Value,
		Condition:     prop.Condition,
		EffectiveFrom: prop.EffectiveFrom,
		EffectiveTo:   prop.EffectiveTo,
		IsActive:      false,
		LegalBasis:    prop.LegalBasis,
		Description:   prop.Description,
		CreatedBy:     createdBy,
		ChangeReason:  prop.ChangeReason,
		CreatedAt:     time.Now(),
	}

	if err := s.store.Insert(ctx, p); err != nil {
		return nil, err
	}

	if err := s.recorder.RecordParameterChange(ctx, audit.ParameterChange{
		ParamID:      p.ID,
		ParamKey:     p.Key,
		Action:       audit.ActionProposed,
		Actor:        createdBy,
		ChangeReason: prop.ChangeReason,
		RequestID:    requestcontext.RequestID(ctx),
	}); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ParamsProposed.Inc()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "parameter version proposed",
			"param_key", p.Key,
			"param_id", p.ID,
			"created_by", createdBy,
		)
	}
	return &p, nil
}

// Approve activates a pending version. The approver must differ from the
// creator, and activation must not create overlapping active intervals
// for the same key and condition: the newest version is rejected until
// the conflict is corrected.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, approvedBy string) (*Parameter, error) {
	if approvedBy == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "approved_by is required")
	}

	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "parameter version not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "parameter lookup failed")
	}
	if p.IsActive {
		return nil, dErrors.New(dErrors.CodeConflict, "parameter version is already active")
	}
	if p.CreatedBy == approvedBy {
		return nil, dErrors.New(dErrors.CodeForbidden, "approver must differ from creator")
	}

	// Overlap guard: an approval that would create two active versions
	// covering the same instant for the same key+condition is refused.
	active, err := s.store.ListActiveByKey(ctx, p.Key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "parameter lookup failed")
	}
	for _, existing := range active {
		if existing.Condition.Hash() == p.Condition.Hash() && existing.Overlaps(*p) {
			return nil, dErrors.Newf(dErrors.CodeConflict,
				"activation would overlap version effective %s",
				existing.EffectiveFrom.Format(time.RFC3339))
		}
	}

	now := time.Now()
	if err := s.store.Activate(ctx, id, approvedBy, now); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "parameter activation failed")
	}

	if err := s.recorder.RecordParameterChange(ctx, audit.ParameterChange{
		ParamID:   p.ID,
		ParamKey:  p.Key,
		Action:    audit.ActionApproved,
		Actor:     approvedBy,
		RequestID: requestcontext.RequestID(ctx),
	}); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.InvalidateKey(ctx, p.Key)
	}
	if s.metrics != nil {
		s.metrics.ParamsApproved.Inc()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "parameter version approved",
			"param_key", p.Key,
			"param_id", p.ID,
			"approved_by", approvedBy,
		)
	}

	p.IsActive = true
	p.ApprovedBy = approvedBy
	p.ApprovedAt = &now
	return p, nil
}

// Deactivate retires an active version, closing its effective interval at
// the current time.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, reason, actor string) error {
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "change reason is required")
	}

	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "parameter version not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "parameter lookup failed")
	}

	now := time.Now()
	if err := s.store.Deactivate(ctx, id, now, reason); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "parameter deactivation failed")
	}

	if err := s.recorder.RecordParameterChange(ctx, audit.ParameterChange{
		ParamID:      p.ID,
		ParamKey:     p.Key,
		Action:       audit.ActionDeactivated,
		Actor:        actor,
		ChangeReason: reason,
		RequestID:    requestcontext.RequestID(ctx),
	}); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.InvalidateKey(ctx, p.Key)
	}
	if s.metrics != nil {
		s.metrics.ParamsDeactivated.Inc()
	}
	return nil
}

// List returns parameter versions for administrative review.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Parameter, error) {
	return s.store.List(ctx, filter)
}

func validateProposal(prop Proposal, createdBy string) error {
	switch {
	case createdBy == "":
		return dErrors.New(dErrors.CodeValidation, "created_by is required")
	case prop.Key == "" || !strings.Contains(prop.Key, "."):
		return dErrors.New(dErrors.CodeValidation, "param key must be dot-namespaced")
	case prop.Category == "":
		return dErrors.New(dErrors.CodeValidation, "param category is required")
	case prop.EffectiveFrom.IsZero():
		return dErrors.New(dErrors.CodeValidation, "effective_from is required")
	case prop.EffectiveTo != nil && !prop.EffectiveFrom.Before(*prop.EffectiveTo):
		return dErrors.New(dErrors.CodeValidation, "effective_to must be after effective_from")
	case prop.Value.Kind == ValueFixed && len(prop.Value.Fields) == 0:
		return dErrors.New(dErrors.CodeValidation, "fixed value requires at least one field")
	}
	return nil
}
