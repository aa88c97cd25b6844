package sim

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names for PartitionedRNG. Arrival generation and tie-break
// resolution draw from independent streams so that a configuration's
// arrival pattern is stable regardless of which selection strategy or
// tie-break mode is used.
const (
	// SubsystemWorkload is the RNG subsystem for request generation.
	// Uses the master seed directly.
	SubsystemWorkload = "workload"

	// SubsystemTieBreak is the RNG subsystem for seeded tie-break draws.
	SubsystemTieBreak = "tiebreak"
)

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemWorkload: uses the master seed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Two runs with the same seed and identical configuration MUST produce
// bit-for-bit identical results.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached),
// so the stream persists across the whole run and is never re-seeded mid-run.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	derivedSeed := p.seed
	if name != SubsystemWorkload {
		derivedSeed = p.seed ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the master seed used to create this PartitionedRNG.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
