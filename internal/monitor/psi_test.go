package monitor

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(r *rand.Rand, mean, spread, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = mean + r.Intn(2*spread) - spread
	}
	return out
}

func TestPSIIsNearZeroForSamePopulation(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	ref := DistributionOf(sample(r, 700, 150, 5000))
	cur := DistributionOf(sample(r, 700, 150, 5000))

	assert.Less(t, PSI(ref, cur), 0.05)
}

func TestPSIDetectsShiftedPopulation(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	ref := DistributionOf(sample(r, 700, 150, 5000))
	shifted := DistributionOf(sample(r, 550, 150, 5000))

	assert.Greater(t, PSI(ref, shifted), 0.25)
}

func TestBucketsCoverTheScale(t *testing.T) {
	assert.Equal(t, 0, bucketOf(100))
	assert.Equal(t, 1, bucketOf(300))
	assert.Equal(t, numBuckets-1, bucketOf(900))
	assert.Equal(t, numBuckets-2, bucketOf(899))
}

func TestMonitorReportsAfterEnoughSamples(t *testing.T) {
	ctx := context.Background()
	r := rand.New(rand.NewSource(3))
	ref := DistributionOf(sample(r, 700, 150, 5000))

	m := New(WithReference(ref), WithWindowSize(500), WithMinSamples(200))

	_, ok := m.Index()
	require.False(t, ok)

	for _, s := range sample(r, 700, 150, 200) {
		m.Observe(ctx, s)
	}
	psi, ok := m.Index()
	require.True(t, ok)
	assert.Less(t, psi, 0.15)

	// Push a shifted population through the rolling window.
	for _, s := range sample(r, 520, 100, 500) {
		m.Observe(ctx, s)
	}
	psi, ok = m.Index()
	require.True(t, ok)
	assert.Greater(t, psi, 0.25)
}

func TestMonitorFreezesReferenceFromWarmup(t *testing.T) {
	ctx := context.Background()
	r := rand.New(rand.NewSource(4))

	m := New(WithWindowSize(200), WithMinSamples(100))
	for _, s := range sample(r, 700, 150, 200) {
		m.Observe(ctx, s)
	}

	// Reference frozen; the window is still empty.
	_, ok := m.Index()
	require.False(t, ok)

	for _, s := range sample(r, 700, 150, 150) {
		m.Observe(ctx, s)
	}
	psi, ok := m.Index()
	require.True(t, ok)
	assert.Less(t, psi, 0.15)
}
