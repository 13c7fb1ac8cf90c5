//go:build integration

package regparam_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lendgate/internal/regparam"
	dErrors "lendgate/pkg/domain-errors"
	"lendgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *regparam.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = regparam.NewPostgresStore(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "regulation_params"))
}

func (s *PostgresStoreSuite) newParam(key string, cond regparam.Condition, from time.Time) regparam.Parameter {
	return regparam.Parameter{
		ID:            uuid.New(),
		Key:           key,
		Category:      "test",
		Value:         regparam.FixedValue(map[string]float64{"value": 42}),
		Condition:     cond,
		EffectiveFrom: from,
		IsActive:      true,
		LegalBasis:    "integration test",
		CreatedBy:     "tester",
		CreatedAt:     time.Now(),
	}
}

func (s *PostgresStoreSuite) TestInsertAndGet() {
	s.Run("round-trips a version", func() {
		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		p := s.newParam("dsr.max_ratio", regparam.Condition{"region": "capital"}, from)
		s.Require().NoError(s.store.Insert(s.ctx, p))

		got, err := s.store.GetByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.Key, got.Key)
		s.Equal(42.0, got.Value.FieldOr("value", 0))
		s.Equal("capital", got.Condition["region"])
		s.True(got.EffectiveFrom.Equal(from))
	})

	s.Run("rejects a duplicate key, condition and effective_from", func() {
		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		p := s.newParam("ltv.max_ratio", nil, from)
		s.Require().NoError(s.store.Insert(s.ctx, p))

		dup := s.newParam("ltv.max_ratio", nil, from)
		err := s.store.Insert(s.ctx, dup)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConflict))
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.GetByID(s.ctx, uuid.New())
		s.Require().ErrorIs(err, regparam.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestListActiveByKey() {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	active := s.newParam("rate.max_interest", nil, from)
	s.Require().NoError(s.store.Insert(s.ctx, active))

	pending := s.newParam("rate.max_interest", nil, from.AddDate(1, 0, 0))
	pending.IsActive = false
	s.Require().NoError(s.store.Insert(s.ctx, pending))

	got, err := s.store.ListActiveByKey(s.ctx, "rate.max_interest")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(active.ID, got[0].ID)
}

func (s *PostgresStoreSuite) TestLifecycle() {
	s.Run("activate sets approval columns", func() {
		p := s.newParam("scorecard.pdo", nil, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		p.IsActive = false
		s.Require().NoError(s.store.Insert(s.ctx, p))

		approvedAt := time.Now()
		s.Require().NoError(s.store.Activate(s.ctx, p.ID, "supervisor-1", approvedAt))

		got, err := s.store.GetByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.True(got.IsActive)
		s.Equal("supervisor-1", got.ApprovedBy)
		s.Require().NotNil(got.ApprovedAt)
	})

	s.Run("deactivate closes the interval", func() {
		p := s.newParam("segment.benefit", regparam.Condition{"segment": "SEG-DR"},
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		s.Require().NoError(s.store.Insert(s.ctx, p))

		end := time.Now()
		s.Require().NoError(s.store.Deactivate(s.ctx, p.ID, end, "program ended"))

		got, err := s.store.GetByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.False(got.IsActive)
		s.Require().NotNil(got.EffectiveTo)
		s.Equal("program ended", got.ChangeReason)
	})
}

func (s *PostgresStoreSuite) TestListFilters() {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Insert(s.ctx, s.newParam("dsr.max_ratio", nil, from)))

	other := s.newParam("ltv.max_ratio", nil, from)
	other.Category = "ltv"
	s.Require().NoError(s.store.Insert(s.ctx, other))

	got, err := s.store.List(s.ctx, regparam.ListFilter{Category: "ltv"})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("ltv.max_ratio", got[0].Key)

	got, err = s.store.List(s.ctx, regparam.ListFilter{Key: "dsr.max_ratio"})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
}
