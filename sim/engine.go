package sim

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/lb-sim/lb-sim/sim/workload"
)

// Engine drives the main loop: it consumes the event queue, mutates server
// states, invokes the selection strategy, and records assignments. It is
// the single mutable owner of the queue, the server states, and the
// tie-break RNG stream, all scoped to one run.
type Engine struct {
	clock    int64
	queue    *EventQueue
	servers  []ServerState
	strategy Strategy
	// tieRNG is nil under stable tie-breaks; strategies consume no draws then.
	tieRNG     *rand.Rand
	concurrent bool
	store      bool

	assignments []Assignment
	stats       runStats
}

// runStats accumulates aggregates incrementally during the loop so no
// second pass over all assignments is needed.
type runStats struct {
	requests      int
	responseTimes []int64   // completed_at - arrival, per request
	waits         []float64 // started_at - arrival, per request
	counts        []uint32  // per server
	responseSums  []int64   // per server
	serviceSums   []int64   // per server busy time
	minArrival    int64
	maxCompletion int64
	haveArrival   bool
}

// RunSimulation validates the configuration, generates the request
// arrivals, and drains the event queue to completion. This is the only
// entry point the CLI and formatters consume. Errors are data values; the
// engine never writes results to any output stream.
func RunSimulation(cfg SimConfig) (*SimulationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var seed int64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	rng := NewPartitionedRNG(seed)

	requests, err := workload.Generate(cfg.Requests, rng.ForSubsystem(SubsystemWorkload))
	if err != nil {
		return nil, err
	}

	strategy, err := NewStrategy(cfg.Algo)
	if err != nil {
		return nil, err
	}

	var tieRNG *rand.Rand
	if cfg.TieBreak == TieBreakSeeded {
		tieRNG = rng.ForSubsystem(SubsystemTieBreak)
	}

	eng := &Engine{
		queue:      NewEventQueue(),
		servers:    newServerStates(cfg.Servers),
		strategy:   strategy,
		tieRNG:     tieRNG,
		concurrent: cfg.ConcurrentPerServer,
		store:      !cfg.SummaryOnly,
		stats: runStats{
			counts:       make([]uint32, len(cfg.Servers)),
			responseSums: make([]int64, len(cfg.Servers)),
			serviceSums:  make([]int64, len(cfg.Servers)),
		},
	}
	if eng.store {
		eng.assignments = make([]Assignment, 0, len(requests))
	}

	for _, req := range requests {
		eng.queue.Schedule(&ArrivalEvent{time: req.ArrivalMs, Request: req})
	}

	logrus.Infof("starting simulation: algo=%s servers=%d requests=%d tie-break=%s",
		strategy.Name(), len(cfg.Servers), len(requests), cfg.TieBreak.Label(cfg.Seed))

	eng.Run()

	return eng.result(&cfg), nil
}

// Run drains the event queue. The loop cannot fail: all error conditions
// are rejected before it starts.
func (e *Engine) Run() {
	for e.queue.Len() > 0 {
		ev := e.queue.PopNext()
		e.clock = ev.Timestamp()
		logrus.Debugf("[%07dms] executing %T", e.clock, ev)
		ev.Execute(e)
	}
	logrus.Infof("[%07dms] simulation ended", e.clock)
}

// handleCompletion releases capacity on a server. It is guaranteed to be
// processed no later than any arrival sharing its timestamp, by the event
// ordering rule.
func (e *Engine) handleCompletion(serverID int) {
	srv := &e.servers[serverID]
	srv.ActiveConnections--
	srv.InFlight--
	logrus.Debugf("[%07dms] complete on %s (active=%d)", e.clock, srv.Name, srv.ActiveConnections)
}

// handleArrival routes one request using the current server states, which
// reflect all completions already applied at or before this instant.
func (e *Engine) handleArrival(req workload.Request) {
	choice := e.strategy.Select(e.servers, e.tieRNG)
	srv := &e.servers[choice.Index]
	srv.ActiveConnections++
	srv.InFlight++
	srv.PickCount++

	started := e.clock
	if !e.concurrent && srv.NextAvailableMs > started {
		started = srv.NextAvailableMs
	}
	completed := started + srv.BaseLatencyMs
	if !e.concurrent {
		srv.NextAvailableMs = completed
	}

	e.queue.Schedule(&CompletionEvent{time: completed, ServerID: srv.ID, RequestID: req.ID})
	logrus.Debugf("[%07dms] request %d -> %s (start=%d complete=%d)", e.clock, req.ID, srv.Name, started, completed)

	assignment := Assignment{
		RequestID:   req.ID,
		ServerID:    srv.ID,
		ArrivalMs:   req.ArrivalMs,
		StartedAt:   started,
		CompletedAt: completed,
	}
	if choice.Scored {
		score := choice.Score
		assignment.Score = &score
	}
	if e.store {
		e.assignments = append(e.assignments, assignment)
	}
	e.record(assignment)
}

// record folds one assignment into the running aggregates.
func (e *Engine) record(a Assignment) {
	s := &e.stats
	s.requests++
	s.responseTimes = append(s.responseTimes, a.CompletedAt-a.ArrivalMs)

	wait := a.StartedAt - a.ArrivalMs
	if wait < 0 {
		wait = 0
	}
	s.waits = append(s.waits, float64(wait))

	s.counts[a.ServerID]++
	s.responseSums[a.ServerID] += a.CompletedAt - a.ArrivalMs
	s.serviceSums[a.ServerID] += a.CompletedAt - a.StartedAt

	if !s.haveArrival || a.ArrivalMs < s.minArrival {
		s.minArrival = a.ArrivalMs
		s.haveArrival = true
	}
	if a.CompletedAt > s.maxCompletion {
		s.maxCompletion = a.CompletedAt
	}
}

// result assembles the immutable run outcome; assignment ownership
// transfers to the result.
func (e *Engine) result(cfg *SimConfig) *SimulationResult {
	window := e.stats.activeWindowMs()

	totals := make([]ServerSummary, len(e.servers))
	for i, srv := range e.servers {
		count := e.stats.counts[i]
		avg := 0.0
		if count > 0 {
			avg = float64(e.stats.responseSums[i]) / float64(count)
		}
		totals[i] = ServerSummary{
			Name:           srv.Name,
			Requests:       count,
			AvgResponseMs:  avg,
			UtilizationPct: utilizationPct(e.stats.serviceSums[i], window),
		}
	}

	return &SimulationResult{
		Assignments: e.assignments,
		Totals:      totals,
		Metadata: RunMetadata{
			Algorithm:       e.strategy.Name(),
			TieBreak:        cfg.TieBreak.Label(cfg.Seed),
			TotalDurationMs: e.stats.maxCompletion,
		},
		Metrics: computeMetrics(&e.stats),
	}
}

// activeWindowMs is the overall run span, starting at the earliest arrival
// so a delayed burst's pre-roll offset is excluded.
func (s *runStats) activeWindowMs() int64 {
	if !s.haveArrival || s.maxCompletion <= s.minArrival {
		return 0
	}
	return s.maxCompletion - s.minArrival
}
