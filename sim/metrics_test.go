package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestRank_SingleSample(t *testing.T) {
	sorted := []int64{10}

	for _, p := range []float64{50, 95, 99} {
		value := nearestRank(sorted, p)
		require.NotNil(t, value)
		assert.Equal(t, 10.0, *value)
	}
}

func TestNearestRank_PicksExistingSamples(t *testing.T) {
	sorted := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	p50 := nearestRank(sorted, 50)
	require.NotNil(t, p50)
	assert.Equal(t, 5.0, *p50) // rank = ceil(0.50 * 10) = 5

	p95 := nearestRank(sorted, 95)
	require.NotNil(t, p95)
	assert.Equal(t, 10.0, *p95) // rank = ceil(0.95 * 10) = 10

	p99 := nearestRank(sorted, 99)
	require.NotNil(t, p99)
	assert.Equal(t, 10.0, *p99)
}

func TestNearestRank_EmptySample(t *testing.T) {
	assert.Nil(t, nearestRank(nil, 95))
}

func TestJainFairness_EqualCountsAreExactlyOne(t *testing.T) {
	assert.Equal(t, 1.0, jainFairness([]uint32{5, 5, 5, 5}))
}

func TestJainFairness_AllZero(t *testing.T) {
	assert.Equal(t, 0.0, jainFairness([]uint32{0, 0, 0}))
}

func TestJainFairness_FullSkew(t *testing.T) {
	// One of two servers takes everything: (4+0)^2 / (2 * 16) = 0.5
	assert.Equal(t, 0.5, jainFairness([]uint32{4, 0}))
}

func TestUtilizationPct_Rounding(t *testing.T) {
	// 1/3 of the window busy rounds to two decimals.
	assert.Equal(t, 33.33, utilizationPct(1, 3))
	assert.Equal(t, 100.0, utilizationPct(10, 10))
	assert.Equal(t, 0.0, utilizationPct(5, 0))
}

func TestComputeMetrics_EmptyRun(t *testing.T) {
	m := computeMetrics(&runStats{counts: make([]uint32, 2)})

	assert.Nil(t, m.P50ResponseMs)
	assert.Nil(t, m.P95ResponseMs)
	assert.Nil(t, m.P99ResponseMs)
	assert.Equal(t, 0.0, m.FairnessIndex)
	assert.Equal(t, 0.0, m.MeanResponseMs)
	assert.Equal(t, 0.0, m.StdevResponseMs)
	assert.Equal(t, 0.0, m.ThroughputRps)
}

func TestComputeMetrics_AggregatesResponseTimes(t *testing.T) {
	s := &runStats{
		requests:      4,
		responseTimes: []int64{40, 10, 30, 20},
		waits:         []float64{0, 2, 4, 6},
		counts:        []uint32{2, 2},
		minArrival:    0,
		maxCompletion: 100,
		haveArrival:   true,
	}
	m := computeMetrics(s)

	require.NotNil(t, m.P50ResponseMs)
	assert.Equal(t, 20.0, *m.P50ResponseMs)
	require.NotNil(t, m.P95ResponseMs)
	assert.Equal(t, 40.0, *m.P95ResponseMs)

	assert.Equal(t, 25.0, m.MeanResponseMs)
	assert.InDelta(t, 12.909944, m.StdevResponseMs, 1e-6)
	assert.Equal(t, 3.0, m.AvgWaitMs)
	assert.Equal(t, 1.0, m.FairnessIndex)
	assert.Equal(t, 40.0, m.ThroughputRps)

	// The input slice order is preserved; only a copy is sorted.
	assert.Equal(t, []int64{40, 10, 30, 20}, s.responseTimes)
}
