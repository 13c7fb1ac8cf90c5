package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	dErrors "lendgate/pkg/domain-errors"
)

type capturedStream struct {
	decisions []DecisionRecord
	changes   []ParameterChange
}

func (s *capturedStream) PublishDecision(_ context.Context, rec DecisionRecord) {
	s.decisions = append(s.decisions, rec)
}

func (s *capturedStream) PublishParameterChange(_ context.Context, rec ParameterChange) {
	s.changes = append(s.changes, rec)
}

type RecorderSuite struct {
	suite.Suite
	ctx    context.Context
	store  *MemoryStore
	stream *capturedStream
}

func (s *RecorderSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemoryStore()
	s.stream = &capturedStream{}
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) TestRecordDecisionFillsDefaults() {
	rec := NewRecorder(s.store, WithStream(s.stream))

	err := rec.RecordDecision(s.ctx, DecisionRecord{Decision: "approved", ApplicantHash: "h1"})
	s.Require().NoError(err)

	got, err := s.store.ListDecisions(s.ctx, QueryFilter{})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.NotEqual(uuid.Nil, got[0].ID)
	s.False(got[0].CreatedAt.IsZero())

	s.Len(s.stream.decisions, 1)
}

func (s *RecorderSuite) TestFailedWriteFailsClosed() {
	s.store.FailWrites = errors.New("connection reset")
	rec := NewRecorder(s.store, WithStream(s.stream))

	err := rec.RecordDecision(s.ctx, DecisionRecord{Decision: "approved"})
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeAuditWrite))

	// Nothing reached the stream for a record that was never durable.
	s.Empty(s.stream.decisions)
}

func (s *RecorderSuite) TestParameterChangeRoundTrip() {
	rec := NewRecorder(s.store)

	err := rec.RecordParameterChange(s.ctx, ParameterChange{
		ParamID:  uuid.New(),
		ParamKey: "dsr.max_ratio",
		Action:   ActionApproved,
		Actor:    "ops:kyj",
	})
	s.Require().NoError(err)

	got, err := s.store.ListParameterChanges(s.ctx, QueryFilter{ParamKey: "dsr.max_ratio"})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(ActionApproved, got[0].Action)
}

func (s *RecorderSuite) TestQueryFiltersNarrow() {
	rec := NewRecorder(s.store)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, d := range []string{"approved", "rejected", "approved"} {
		err := rec.RecordDecision(s.ctx, DecisionRecord{
			Decision:  d,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		s.Require().NoError(err)
	}

	rejected, err := s.store.ListDecisions(s.ctx, QueryFilter{Decision: "rejected"})
	s.Require().NoError(err)
	s.Len(rejected, 1)

	window, err := s.store.ListDecisions(s.ctx, QueryFilter{
		From: base.Add(30 * time.Minute),
		To:   base.Add(90 * time.Minute),
	})
	s.Require().NoError(err)
	s.Len(window, 1)

	capped, err := s.store.ListDecisions(s.ctx, QueryFilter{Limit: 2})
	s.Require().NoError(err)
	s.Len(capped, 2)
}
