package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionedRNG_WorkloadUsesMasterSeedDirectly(t *testing.T) {
	p := NewPartitionedRNG(42)
	reference := rand.New(rand.NewSource(42))

	got := p.ForSubsystem(SubsystemWorkload)
	for i := 0; i < 10; i++ {
		assert.Equal(t, reference.Int63(), got.Int63())
	}
}

func TestPartitionedRNG_TieBreakStreamIsIndependent(t *testing.T) {
	p := NewPartitionedRNG(42)

	workload := p.ForSubsystem(SubsystemWorkload)
	tiebreak := p.ForSubsystem(SubsystemTieBreak)
	require.NotSame(t, workload, tiebreak)

	// Derived seed differs from the master seed, so the streams diverge.
	assert.NotEqual(t, rand.New(rand.NewSource(42)).Int63(), tiebreak.Int63())
}

func TestPartitionedRNG_CachesInstances(t *testing.T) {
	p := NewPartitionedRNG(7)

	first := p.ForSubsystem(SubsystemTieBreak)
	first.Int63()
	second := p.ForSubsystem(SubsystemTieBreak)

	// Same instance: the stream continues instead of restarting.
	assert.Same(t, first, second)
}

func TestPartitionedRNG_DeterministicAcrossInstances(t *testing.T) {
	a := NewPartitionedRNG(1234).ForSubsystem(SubsystemTieBreak)
	b := NewPartitionedRNG(1234).ForSubsystem(SubsystemTieBreak)

	for i := 0; i < 100; i++ {
		require.Equal(t, a.Int63(), b.Int63())
	}
}

func TestPartitionedRNG_Seed(t *testing.T) {
	assert.Equal(t, int64(99), NewPartitionedRNG(99).Seed())
}
