package sim

// ServerState holds the per-server simulation counters. States are owned
// exclusively by the engine for the duration of one run and mutated only
// inside the event loop.
type ServerState struct {
	ID            int    // stable index into the input server list
	Name          string
	BaseLatencyMs int64
	Weight        int64

	// ActiveConnections counts requests currently open on this server.
	// Every increment at arrival has a matching decrement at the
	// corresponding completion, so it never underflows.
	ActiveConnections uint32
	// PickCount is the cumulative times this server was chosen; used as a
	// load proxy by least-response-time.
	PickCount uint32
	// InFlight mirrors ActiveConnections for clarity in traces.
	InFlight uint32
	// NextAvailableMs is the earliest time the server can start a new unit
	// of work. Only consulted when service is serialized per server.
	NextAvailableMs int64
}

// newServerStates builds zeroed states in input order.
func newServerStates(servers []ServerConfig) []ServerState {
	states := make([]ServerState, len(servers))
	for i, server := range servers {
		states[i] = ServerState{
			ID:            i,
			Name:          server.Name,
			BaseLatencyMs: server.BaseLatencyMs,
			Weight:        server.Weight,
		}
	}
	return states
}

// Assignment records the routing of one request. Immutable once created.
type Assignment struct {
	RequestID   int   `json:"request_id"`
	ServerID    int   `json:"server_id"`
	ArrivalMs   int64 `json:"arrival_time_ms"`
	StartedAt   int64 `json:"started_at"`
	CompletedAt int64 `json:"completed_at"`
	// Score is populated only by score-based strategies (least-response-time).
	Score *int64 `json:"score,omitempty"`
}

// ServerSummary is the per-server roll-up, in input server order.
type ServerSummary struct {
	Name     string `json:"name"`
	Requests uint32 `json:"requests"`
	// AvgResponseMs averages completed_at - arrival_time_ms; 0 when no requests.
	AvgResponseMs float64 `json:"avg_response_ms"`
	// UtilizationPct is busy time over the active window, in percent,
	// rounded to 2 decimals.
	UtilizationPct float64 `json:"utilization_pct"`
}

// RunMetadata describes how the run was configured, for output rendering.
type RunMetadata struct {
	Algorithm string `json:"algorithm"`
	TieBreak  string `json:"tie_break"`
	// TotalDurationMs is the maximum completion time across all requests.
	TotalDurationMs int64 `json:"total_duration_ms"`
}

// Metrics are the derived aggregate statistics for one run.
type Metrics struct {
	// Nearest-rank response-time percentiles; nil when no requests completed.
	P50ResponseMs *float64 `json:"p50_response_ms,omitempty"`
	P95ResponseMs *float64 `json:"p95_response_ms,omitempty"`
	P99ResponseMs *float64 `json:"p99_response_ms,omitempty"`

	MeanResponseMs  float64 `json:"mean_response_ms"`
	StdevResponseMs float64 `json:"stdev_response_ms"`

	// FairnessIndex is Jain's index over per-server request counts, in [0,1].
	FairnessIndex float64 `json:"fairness_index"`
	// ThroughputRps is completed requests per second of active window.
	ThroughputRps float64 `json:"throughput_rps"`
	// AvgWaitMs averages started_at - arrival_time_ms across all requests.
	AvgWaitMs float64 `json:"avg_wait_ms"`
}

// SimulationResult is the complete outcome of one run. Rendering it to
// human/JSON text is the caller's responsibility; the engine never writes
// to any output stream.
type SimulationResult struct {
	// Assignments is empty when the run was configured summary-only.
	Assignments []Assignment    `json:"assignments,omitempty"`
	Totals      []ServerSummary `json:"totals"`
	Metadata    RunMetadata     `json:"metadata"`
	Metrics     Metrics         `json:"metrics"`
}
