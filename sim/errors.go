package sim

import "errors"

// Validation errors surfaced by SimConfig.Validate before a run starts.
// The engine loop itself performs no fallible operations once validation
// has passed.
var (
	ErrEmptyServers        = errors.New("servers must not be empty")
	ErrDuplicateServerName = errors.New("duplicate server name")
	ErrInvalidLatency      = errors.New("latency must be > 0")
	ErrInvalidWeight       = errors.New("weight must be > 0")
	ErrSeedRequired        = errors.New("seeded tie-break requires a seed")
	ErrUnknownAlgorithm    = errors.New("unknown algorithm")
	ErrUnknownTieBreak     = errors.New("unknown tie-break mode")
	ErrMissingProfile      = errors.New("request profile is required")
)
