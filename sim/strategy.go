package sim

import (
	"fmt"
	"math/rand"
	"sort"
)

// pickPenaltyMs is the fixed per-pick backpressure penalty in the
// least-response-time score. Historical outputs diff against this exact
// constant; it is not a tunable.
const pickPenaltyMs = 10

// Choice is the outcome of one selection.
type Choice struct {
	Index  int
	Score  int64 // meaningful only when Scored
	Scored bool
}

// Strategy decides which server receives the next request.
//
// Select receives the current server states and, for seeded tie-breaks, a
// mutable RNG handle threaded through every call in sequence. A nil rng
// means stable tie-breaks: always the lowest-index candidate, no draws
// consumed.
type Strategy interface {
	Name() string
	Select(servers []ServerState, rng *rand.Rand) Choice
}

// NewStrategy creates the strategy for an AlgoKind.
func NewStrategy(kind AlgoKind) (Strategy, error) {
	switch kind {
	case RoundRobin:
		return &roundRobin{}, nil
	case WeightedRoundRobin:
		return &weightedRoundRobin{}, nil
	case LeastConnections:
		return &leastConnections{}, nil
	case LeastResponseTime:
		return &leastResponseTime{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, kind)
	}
}

// roundRobin cycles through servers in index order starting at 0.
// No ties are possible, so the RNG is never consulted.
type roundRobin struct {
	cursor int
}

func (s *roundRobin) Name() string { return string(RoundRobin) }

func (s *roundRobin) Select(servers []ServerState, _ *rand.Rand) Choice {
	idx := s.cursor
	s.cursor = (s.cursor + 1) % len(servers)
	return Choice{Index: idx}
}

// weightedRoundRobin interleaves picks in exact weight proportion over any
// full cycle of total_weight picks: weights [2,1] yield [0,0,1] repeating.
// The prefix-sum cache is keyed on server count and rebuilt lazily when the
// snapshot no longer matches.
type weightedRoundRobin struct {
	cursor      int64
	prefix      []int64
	cachedCount int
}

func (s *weightedRoundRobin) Name() string { return string(WeightedRoundRobin) }

func (s *weightedRoundRobin) Select(servers []ServerState, _ *rand.Rand) Choice {
	if s.prefix == nil || s.cachedCount != len(servers) {
		s.rebuild(servers)
	}
	total := s.prefix[len(s.prefix)-1]
	target := s.cursor % total
	s.cursor = (s.cursor + 1) % total

	// Upper bound: first prefix sum strictly greater than target.
	idx := sort.Search(len(s.prefix), func(i int) bool {
		return s.prefix[i] > target
	})
	if idx >= len(servers) {
		idx = 0
	}
	return Choice{Index: idx}
}

func (s *weightedRoundRobin) rebuild(servers []ServerState) {
	s.prefix = make([]int64, len(servers))
	sum := int64(0)
	for i, server := range servers {
		sum += server.Weight
		s.prefix[i] = sum
	}
	s.cachedCount = len(servers)
}

// leastConnections picks the server with the fewest active connections,
// resolving ties via pickCandidate.
type leastConnections struct{}

func (s *leastConnections) Name() string { return string(LeastConnections) }

func (s *leastConnections) Select(servers []ServerState, rng *rand.Rand) Choice {
	var candidates []int
	minCount := uint32(0)
	for idx, server := range servers {
		switch {
		case len(candidates) == 0 || server.ActiveConnections < minCount:
			minCount = server.ActiveConnections
			candidates = candidates[:0]
			candidates = append(candidates, idx)
		case server.ActiveConnections == minCount:
			candidates = append(candidates, idx)
		}
	}
	return Choice{Index: pickCandidate(candidates, rng)}
}

// leastResponseTime scores each server as base latency plus a fixed
// per-pick penalty and picks the minimum, reporting the winning score for
// diagnostics.
type leastResponseTime struct{}

func (s *leastResponseTime) Name() string { return string(LeastResponseTime) }

func (s *leastResponseTime) Select(servers []ServerState, rng *rand.Rand) Choice {
	var candidates []int
	minScore := int64(0)
	for idx, server := range servers {
		score := server.BaseLatencyMs + int64(server.PickCount)*pickPenaltyMs
		switch {
		case len(candidates) == 0 || score < minScore:
			minScore = score
			candidates = candidates[:0]
			candidates = append(candidates, idx)
		case score == minScore:
			candidates = append(candidates, idx)
		}
	}
	return Choice{Index: pickCandidate(candidates, rng), Score: minScore, Scored: true}
}

// pickCandidate resolves a tie among equally-optimal candidates: a uniform
// draw from the run-scoped stream when seeded, the lowest index otherwise.
func pickCandidate(candidates []int, rng *rand.Rand) int {
	if rng != nil {
		return candidates[rng.Intn(len(candidates))]
	}
	return candidates[0]
}
