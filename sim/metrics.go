package sim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// computeMetrics derives the aggregate metrics from the incrementally
// accumulated run statistics.
func computeMetrics(s *runStats) Metrics {
	window := s.activeWindowMs()

	sorted := make([]int64, len(s.responseTimes))
	copy(sorted, s.responseTimes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	responses := make([]float64, len(s.responseTimes))
	for i, rt := range s.responseTimes {
		responses[i] = float64(rt)
	}

	m := Metrics{
		P50ResponseMs: nearestRank(sorted, 50),
		P95ResponseMs: nearestRank(sorted, 95),
		P99ResponseMs: nearestRank(sorted, 99),
		FairnessIndex: jainFairness(s.counts),
	}
	if len(responses) > 0 {
		m.MeanResponseMs = stat.Mean(responses, nil)
		m.AvgWaitMs = stat.Mean(s.waits, nil)
	}
	if len(responses) > 1 {
		m.StdevResponseMs = stat.StdDev(responses, nil)
	}
	if window > 0 {
		m.ThroughputRps = float64(s.requests) / float64(window) * 1000
	}
	return m
}

// nearestRank returns the p-th percentile of an ascending sample using the
// nearest-rank method: rank = ceil(p/100 * n), picking an existing sample
// rather than interpolating. Nil when the sample is empty.
func nearestRank(sorted []int64, p float64) *float64 {
	n := len(sorted)
	if n == 0 {
		return nil
	}
	rank := int(math.Ceil(p / 100.0 * float64(n)))
	idx := rank - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	value := float64(sorted[idx])
	return &value
}

// jainFairness computes Jain's fairness index over per-server request
// counts: (Σc)² / (n·Σc²), a normalized [0,1] measure of how evenly load
// is distributed. 0 when all counts are zero.
func jainFairness(counts []uint32) float64 {
	var sum, sumSquares float64
	for _, c := range counts {
		sum += float64(c)
		sumSquares += float64(c) * float64(c)
	}
	if sumSquares == 0 {
		return 0
	}
	return sum * sum / (float64(len(counts)) * sumSquares)
}

// utilizationPct is busy time over the active window in percent, rounded
// to 2 decimals.
func utilizationPct(serviceMs, windowMs int64) float64 {
	if windowMs <= 0 {
		return 0
	}
	return math.Round(float64(serviceMs)/float64(windowMs)*100*100) / 100
}
