// Package workload generates the synthetic request arrivals consumed by the
// simulation engine. A Profile describes when requests arrive; it never
// decides where they go.
package workload

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Request is one synthetic request produced by a Profile.
// IDs are 1-based and serve as the stable ordering tie-break for events
// sharing a timestamp.
type Request struct {
	ID        int   `json:"id"`
	ArrivalMs int64 `json:"arrival_time_ms"`
}

// Profile validation errors.
var (
	ErrRequestsZero    = errors.New("requests must be greater than 0")
	ErrInvalidRate     = errors.New("poisson rate must be greater than 0")
	ErrInvalidDuration = errors.New("poisson duration must be greater than 0")
)

// Profile produces the ordered set of requests for one simulation run.
// Generate consumes draws only from the RNG it is handed; profiles hold
// no seed state of their own.
type Profile interface {
	// Validate reports the first constraint violation, if any.
	Validate() error
	// Generate produces requests ordered by (arrival, id). The returned
	// slice is never empty on success.
	Generate(rng *rand.Rand) ([]Request, error)
	// String renders the profile the way the CLI's show-config prints it.
	String() string
}

// Generate validates the profile and produces its requests.
func Generate(p Profile, rng *rand.Rand) ([]Request, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p.Generate(rng)
}

// FixedCount produces requests 1..Count arriving one per millisecond,
// starting at time 0.
type FixedCount struct {
	Count int
}

func (p FixedCount) Validate() error {
	if p.Count <= 0 {
		return ErrRequestsZero
	}
	return nil
}

func (p FixedCount) Generate(_ *rand.Rand) ([]Request, error) {
	requests := make([]Request, p.Count)
	for i := range requests {
		requests[i] = Request{ID: i + 1, ArrivalMs: int64(i)}
	}
	return requests, nil
}

func (p FixedCount) String() string {
	return fmt.Sprintf("%d", p.Count)
}

// Burst produces Count requests all arriving simultaneously at AtMs.
type Burst struct {
	Count int
	AtMs  int64
}

func (p Burst) Validate() error {
	if p.Count <= 0 {
		return ErrRequestsZero
	}
	return nil
}

func (p Burst) Generate(_ *rand.Rand) ([]Request, error) {
	requests := make([]Request, p.Count)
	for i := range requests {
		requests[i] = Request{ID: i + 1, ArrivalMs: p.AtMs}
	}
	return requests, nil
}

func (p Burst) String() string {
	return fmt.Sprintf("burst(count=%d, at_ms=%d)", p.Count, p.AtMs)
}

// Poisson produces exponentially-distributed inter-arrival times at Rate
// requests/second until the running clock reaches DurationMs.
type Poisson struct {
	Rate       float64 // requests per second
	DurationMs int64
}

func (p Poisson) Validate() error {
	if p.Rate <= 0 {
		return ErrInvalidRate
	}
	if p.DurationMs <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// Generate draws inter-arrival times as -ln(U)/lambda with lambda in
// requests/millisecond. Arrival times are floored to whole milliseconds
// and kept strictly increasing.
func (p Poisson) Generate(rng *rand.Rand) ([]Request, error) {
	lambda := p.Rate / 1000.0

	var requests []Request
	clock := 0.0
	lastArrival := int64(-1)
	for {
		u := rng.Float64()
		if u == 0 {
			u = math.SmallestNonzeroFloat64 // prevent -ln(0) = +Inf
		}
		clock += -math.Log(u) / lambda
		if clock >= float64(p.DurationMs) {
			break
		}
		arrival := int64(clock)
		if arrival <= lastArrival {
			arrival = lastArrival + 1
		}
		lastArrival = arrival
		requests = append(requests, Request{ID: len(requests) + 1, ArrivalMs: arrival})
	}

	if len(requests) == 0 {
		logrus.Debugf("poisson profile produced no arrivals (rate=%g, duration=%dms)", p.Rate, p.DurationMs)
		return nil, ErrRequestsZero
	}
	return requests, nil
}

func (p Poisson) String() string {
	return fmt.Sprintf("poisson(rate=%g, duration_ms=%d)", p.Rate, p.DurationMs)
}
