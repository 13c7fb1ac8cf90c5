//go:build integration

package regparam_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lendgate/internal/regparam"
	"lendgate/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *regparam.RedisCache
	ctx   context.Context
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.cache = regparam.NewRedisCache(s.redis.Client, 10*time.Second, nil)
	s.ctx = context.Background()
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisCacheSuite) param(key string) regparam.Parameter {
	return regparam.Parameter{
		ID:            uuid.New(),
		Key:           key,
		Category:      "ratio",
		Value:         regparam.FixedValue(map[string]float64{"max_ratio": 40}),
		EffectiveFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:      true,
	}
}

func (s *RedisCacheSuite) TestRoundTrip() {
	p := s.param("dsr.max_ratio")
	s.cache.Set(s.ctx, p.Key, "h1", p)

	got, ok := s.cache.Get(s.ctx, p.Key, "h1")
	s.Require().True(ok)
	s.Equal(p.ID, got.ID)
	s.Equal(40.0, got.Value.FieldOr("max_ratio", 0))
	s.True(got.EffectiveFrom.Equal(p.EffectiveFrom))
}

func (s *RedisCacheSuite) TestMissOnUnknownVariant() {
	p := s.param("ltv.max_ratio")
	s.cache.Set(s.ctx, p.Key, "h1", p)

	_, ok := s.cache.Get(s.ctx, p.Key, "h2")
	s.False(ok)
}

func (s *RedisCacheSuite) TestInvalidateDropsAllVariants() {
	p := s.param("ltv.max_ratio")
	s.cache.Set(s.ctx, p.Key, "uncond", p)
	s.cache.Set(s.ctx, p.Key, "area-regulated", p)
	s.cache.Set(s.ctx, "rate.max_interest", "uncond", s.param("rate.max_interest"))

	s.cache.InvalidateKey(s.ctx, p.Key)

	_, ok := s.cache.Get(s.ctx, p.Key, "uncond")
	s.False(ok)
	_, ok = s.cache.Get(s.ctx, p.Key, "area-regulated")
	s.False(ok)

	_, ok = s.cache.Get(s.ctx, "rate.max_interest", "uncond")
	s.True(ok, "other keys survive invalidation")
}
