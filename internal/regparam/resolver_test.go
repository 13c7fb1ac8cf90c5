package regparam

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	dErrors "lendgate/pkg/domain-errors"
)

type ResolverSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func (s *ResolverSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	s.Require().NoError(err)
	return t
}

func (s *ResolverSuite) insert(key string, cond Condition, from string, to string, fields map[string]float64) Parameter {
	p := Parameter{
		ID:            uuid.New(),
		Key:           key,
		Category:      "test",
		Value:         FixedValue(fields),
		Condition:     cond,
		EffectiveFrom: s.date(from),
		IsActive:      true,
		CreatedAt:     time.Now(),
	}
	if to != "" {
		end := s.date(to)
		p.EffectiveTo = &end
	}
	s.Require().NoError(s.store.Insert(s.ctx, p))
	return p
}

// TestPointInTimeSelection verifies that resolution is governed by the
// effective interval containing asOf, not by recency.
func (s *ResolverSuite) TestPointInTimeSelection() {
	s.insert("stress_dsr.addon", Condition{"rate_type": "variable"}, "2024-02-26", "2025-07-01",
		map[string]float64{"addon_rate": 0.75})
	s.insert("stress_dsr.addon", Condition{"rate_type": "variable"}, "2025-07-01", "",
		map[string]float64{"addon_rate": 1.5})

	resolver := NewResolver(s.store)
	matchCtx := Context{"rate_type": "variable"}

	s.Run("resolves the version covering asOf", func() {
		got, err := resolver.Resolve(s.ctx, "stress_dsr.addon", s.date("2025-03-15"), matchCtx)
		s.Require().NoError(err)
		s.Equal(0.75, got.Value.FieldOr("addon_rate", 0))
	})

	s.Run("interval end is exclusive", func() {
		got, err := resolver.Resolve(s.ctx, "stress_dsr.addon", s.date("2025-07-01"), matchCtx)
		s.Require().NoError(err)
		s.Equal(1.5, got.Value.FieldOr("addon_rate", 0))
	})

	s.Run("interval start is inclusive", func() {
		got, err := resolver.Resolve(s.ctx, "stress_dsr.addon", s.date("2024-02-26"), matchCtx)
		s.Require().NoError(err)
		s.Equal(0.75, got.Value.FieldOr("addon_rate", 0))
	})

	s.Run("returns not found before any version", func() {
		_, err := resolver.Resolve(s.ctx, "stress_dsr.addon", s.date("2024-01-01"), matchCtx)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

// TestConditionSpecificity verifies that the most specific satisfied
// condition wins and that unrelated conditions do not match.
func (s *ResolverSuite) TestConditionSpecificity() {
	s.insert("ltv.max_ratio", nil, "2023-01-01", "",
		map[string]float64{"max_ratio": 70})
	s.insert("ltv.max_ratio", Condition{"area": "regulated"}, "2023-01-01", "",
		map[string]float64{"max_ratio": 60})
	s.insert("ltv.max_ratio", Condition{"area": "speculation"}, "2023-01-01", "",
		map[string]float64{"max_ratio": 40})

	resolver := NewResolver(s.store)
	asOf := s.date("2024-06-01")

	s.Run("specific condition beats the general fallback", func() {
		got, err := resolver.Resolve(s.ctx, "ltv.max_ratio", asOf, Context{"area": "regulated"})
		s.Require().NoError(err)
		s.Equal(60.0, got.Value.FieldOr("max_ratio", 0))
	})

	s.Run("unmatched context falls back to the general version", func() {
		got, err := resolver.Resolve(s.ctx, "ltv.max_ratio", asOf, Context{"area": "rural"})
		s.Require().NoError(err)
		s.Equal(70.0, got.Value.FieldOr("max_ratio", 0))
	})

	s.Run("empty context resolves the unconditional version", func() {
		got, err := resolver.Resolve(s.ctx, "ltv.max_ratio", asOf, nil)
		s.Require().NoError(err)
		s.Equal(70.0, got.Value.FieldOr("max_ratio", 0))
	})
}

// TestAmbiguityFailsClosed verifies that two equally specific applicable
// versions are a configuration error, never an arbitrary pick.
func (s *ResolverSuite) TestAmbiguityFailsClosed() {
	s.insert("dsr.max_ratio", Condition{"region": "capital"}, "2023-01-01", "",
		map[string]float64{"max_ratio": 40})
	s.insert("dsr.max_ratio", Condition{"product": "mortgage"}, "2023-01-01", "",
		map[string]float64{"max_ratio": 50})

	resolver := NewResolver(s.store)

	s.Run("equal specificity is a configuration error", func() {
		_, err := resolver.Resolve(s.ctx, "dsr.max_ratio", s.date("2024-01-01"),
			Context{"region": "capital", "product": "mortgage"})
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeConfiguration))
	})

	s.Run("single match resolves normally", func() {
		got, err := resolver.Resolve(s.ctx, "dsr.max_ratio", s.date("2024-01-01"),
			Context{"region": "capital"})
		s.Require().NoError(err)
		s.Equal(40.0, got.Value.FieldOr("max_ratio", 0))
	})
}

// TestCacheValidation verifies that cached entries are re-checked against
// asOf and context at use, so a cache filled before a phase boundary never
// serves across it.
func (s *ResolverSuite) TestCacheValidation() {
	s.insert("stress_dsr.addon", Condition{"rate_type": "variable"}, "2024-02-26", "2025-07-01",
		map[string]float64{"addon_rate": 0.75})
	s.insert("stress_dsr.addon", Condition{"rate_type": "variable"}, "2025-07-01", "",
		map[string]float64{"addon_rate": 1.5})

	cache := NewMemoryCache(time.Minute)
	resolver := NewResolver(s.store, WithCache(cache))
	matchCtx := Context{"rate_type": "variable"}

	s.Run("cache filled before a boundary does not serve past it", func() {
		got, err := resolver.Resolve(s.ctx, "stress_dsr.addon", s.date("2025-06-30"), matchCtx)
		s.Require().NoError(err)
		s.Equal(0.75, got.Value.FieldOr("addon_rate", 0))

		got, err = resolver.Resolve(s.ctx, "stress_dsr.addon", s.date("2025-07-02"), matchCtx)
		s.Require().NoError(err)
		s.Equal(1.5, got.Value.FieldOr("addon_rate", 0))
	})

	s.Run("invalidated key refreshes from the store", func() {
		_, err := resolver.Resolve(s.ctx, "stress_dsr.addon", s.date("2025-08-01"), matchCtx)
		s.Require().NoError(err)

		cache.InvalidateKey(s.ctx, "stress_dsr.addon")
		got, err := resolver.Resolve(s.ctx, "stress_dsr.addon", s.date("2025-08-01"), matchCtx)
		s.Require().NoError(err)
		s.Equal(1.5, got.Value.FieldOr("addon_rate", 0))
	})
}

// TestInactiveVersionsIgnored verifies that pending (unapproved) versions
// never influence resolution.
func (s *ResolverSuite) TestInactiveVersionsIgnored() {
	s.insert("rate.max_interest", nil, "2021-07-07", "",
		map[string]float64{"max_rate": 20})

	pending := Parameter{
		ID:            uuid.New(),
		Key:           "rate.max_interest",
		Category:      "rate",
		Value:         FixedValue(map[string]float64{"max_rate": 15}),
		EffectiveFrom: s.date("2021-07-07"),
		IsActive:      false,
		CreatedAt:     time.Now(),
	}
	// Same key, different effective_from would collide; shift it.
	pending.EffectiveFrom = s.date("2026-01-01")
	s.Require().NoError(s.store.Insert(s.ctx, pending))

	resolver := NewResolver(s.store)
	got, err := resolver.Resolve(s.ctx, "rate.max_interest", s.date("2026-02-01"), nil)
	s.Require().NoError(err)
	s.Equal(20.0, got.Value.FieldOr("max_rate", 0))
}
