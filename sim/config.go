package sim

import (
	"fmt"

	"github.com/lb-sim/lb-sim/sim/workload"
)

// AlgoKind names a selection strategy.
type AlgoKind string

const (
	RoundRobin         AlgoKind = "round-robin"
	WeightedRoundRobin AlgoKind = "weighted-round-robin"
	LeastConnections   AlgoKind = "least-connections"
	LeastResponseTime  AlgoKind = "least-response-time"
)

// AlgoKinds returns all selection strategies in presentation order.
func AlgoKinds() []AlgoKind {
	return []AlgoKind{RoundRobin, WeightedRoundRobin, LeastConnections, LeastResponseTime}
}

// ParseAlgoKind maps a CLI/config name to an AlgoKind.
func ParseAlgoKind(name string) (AlgoKind, error) {
	for _, kind := range AlgoKinds() {
		if string(kind) == name {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// TieBreakKind selects how ties among equally-optimal servers resolve.
type TieBreakKind string

const (
	// TieBreakStable always picks the lowest-index candidate; no RNG consumed.
	TieBreakStable TieBreakKind = "stable"
	// TieBreakSeeded draws a uniform index from a single seeded stream that
	// persists across the whole run.
	TieBreakSeeded TieBreakKind = "seeded"
)

// Label renders the tie-break mode the way historical output prints it,
// e.g. "stable" or "seeded(42)".
func (t TieBreakKind) Label(seed *int64) string {
	if t == TieBreakSeeded {
		var s int64
		if seed != nil {
			s = *seed
		}
		return fmt.Sprintf("seeded(%d)", s)
	}
	return string(TieBreakStable)
}

// ServerConfig is the immutable description of one simulated server.
type ServerConfig struct {
	Name          string `json:"name" yaml:"name"`
	BaseLatencyMs int64  `json:"latency_ms" yaml:"latency_ms"`
	// Weight is used only by weighted round-robin.
	Weight int64 `json:"weight" yaml:"weight"`
}

// SimConfig carries everything one simulation run needs. It is built and
// validated by the CLI/config layer; RunSimulation re-validates before the
// loop starts so the engine itself never fails mid-run.
type SimConfig struct {
	Servers  []ServerConfig
	Requests workload.Profile
	Algo     AlgoKind
	TieBreak TieBreakKind
	// Seed drives both the Poisson arrival stream and the seeded tie-break
	// stream (via independent derived streams). Required when TieBreak is
	// seeded; a nil seed otherwise behaves as seed 0 for arrivals.
	Seed *int64

	// ConcurrentPerServer allows unlimited simultaneous service on each
	// server. Default (false) serializes service: a request starts no
	// earlier than the server's previous completion.
	ConcurrentPerServer bool

	// SummaryOnly skips retaining the per-request assignment history.
	// Aggregate metrics are unaffected.
	SummaryOnly bool
}

// Validate returns the first configuration violation found, or nil.
func (c *SimConfig) Validate() error {
	if len(c.Servers) == 0 {
		return ErrEmptyServers
	}
	seen := make(map[string]struct{}, len(c.Servers))
	for _, server := range c.Servers {
		if server.BaseLatencyMs <= 0 {
			return fmt.Errorf("%w: server %q", ErrInvalidLatency, server.Name)
		}
		if server.Weight <= 0 {
			return fmt.Errorf("%w: server %q", ErrInvalidWeight, server.Name)
		}
		if _, dup := seen[server.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateServerName, server.Name)
		}
		seen[server.Name] = struct{}{}
	}
	if c.Requests == nil {
		return ErrMissingProfile
	}
	if err := c.Requests.Validate(); err != nil {
		return err
	}
	if _, err := ParseAlgoKind(string(c.Algo)); err != nil {
		return err
	}
	switch c.TieBreak {
	case TieBreakStable:
	case TieBreakSeeded:
		if c.Seed == nil {
			return ErrSeedRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTieBreak, c.TieBreak)
	}
	return nil
}
