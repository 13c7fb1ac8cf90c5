package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	dErrors "lendgate/pkg/domain-errors"
)

// Stream mirrors audit records onto a message stream for offline
// consumers (drift monitoring, dashboards). Publishing is best-effort;
// the durable store remains the source of truth.
type Stream interface {
	PublishDecision(ctx context.Context, rec DecisionRecord)
	PublishParameterChange(ctx context.Context, rec ParameterChange)
}

// Recorder writes audit records with fail-closed semantics: the caller
// blocks until the store write succeeds, and a failed write must fail the
// calling operation. Use for every decision and parameter change.
type Recorder struct {
	store  Store
	stream Stream
	logger *slog.Logger
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithStream attaches a monitoring stream.
func WithStream(stream Stream) Option {
	return func(r *Recorder) { r.stream = stream }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// NewRecorder creates an audit recorder over a durable store.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordDecision durably appends a decision record. On failure the
// decision MUST be reported as failed to the caller; never return a
// decision that was not recorded.
func (r *Recorder) RecordDecision(ctx context.Context, rec DecisionRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	if err := r.store.AppendDecision(ctx, rec); err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "CRITICAL: decision audit write failed",
				"decision", rec.Decision,
				"applicant_hash", rec.ApplicantHash,
				"error", err,
			)
		}
		return dErrors.Wrap(err, dErrors.CodeAuditWrite, "decision audit write failed")
	}

	if r.stream != nil {
		r.stream.PublishDecision(ctx, rec)
	}
	return nil
}

// RecordParameterChange durably appends a parameter lifecycle event.
func (r *Recorder) RecordParameterChange(ctx context.Context, rec ParameterChange) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now()
	}

	if err := r.store.AppendParameterChange(ctx, rec); err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "CRITICAL: parameter change audit write failed",
				"param_key", rec.ParamKey,
				"action", rec.Action,
				"error", err,
			)
		}
		return dErrors.Wrap(err, dErrors.CodeAuditWrite, "parameter change audit write failed")
	}

	if r.stream != nil {
		r.stream.PublishParameterChange(ctx, rec)
	}
	return nil
}
