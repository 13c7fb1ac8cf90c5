// Package monitor watches the live score distribution for drift against
// a reference population using the population stability index. It feeds
// off the audit decision stream; it never sits on the decision path.
package monitor

import "math"

// Score histogram: ten equal buckets across the score scale plus an
// underflow and an overflow bucket.
const (
	scaleMin    = 300
	scaleMax    = 900
	innerBucket = 10
	numBuckets  = innerBucket + 2

	bucketWidth = (scaleMax - scaleMin) / innerBucket
)

// psiEpsilon keeps empty buckets from blowing up the logarithm.
const psiEpsilon = 1e-4

// Distribution is a score histogram normalized to proportions.
type Distribution [numBuckets]float64

func bucketOf(score int) int {
	switch {
	case score < scaleMin:
		return 0
	case score >= scaleMax:
		return numBuckets - 1
	default:
		return 1 + (score-scaleMin)/bucketWidth
	}
}

// DistributionOf builds a normalized histogram from raw scores.
func DistributionOf(scores []int) Distribution {
	var d Distribution
	if len(scores) == 0 {
		return d
	}
	for _, s := range scores {
		d[bucketOf(s)]++
	}
	n := float64(len(scores))
	for i := range d {
		d[i] /= n
	}
	return d
}

// PSI is the population stability index between a reference and a
// current distribution. Values above 0.1 signal moderate drift, above
// 0.25 significant drift.
func PSI(reference, current Distribution) float64 {
	sum := 0.0
	for i := range reference {
		ref := math.Max(reference[i], psiEpsilon)
		cur := math.Max(current[i], psiEpsilon)
		sum += (cur - ref) * math.Log(cur/ref)
	}
	return sum
}
