package sim

import "github.com/lb-sim/lb-sim/sim/workload"

// EventKind orders event types sharing a timestamp. Completions drain
// before same-millisecond arrivals so a server frees capacity before the
// arrival is routed; the engine's instantaneous connection counts depend
// on this.
type EventKind uint8

const (
	KindRequestComplete EventKind = iota
	KindRequestArrival
)

// Event is one scheduled simulation event. The queue's total order is
// Timestamp, then Kind, then TiebreakID.
type Event interface {
	Timestamp() int64
	Kind() EventKind
	// TiebreakID fully determines ordering among events of the same kind
	// at the same instant: the request id for arrivals, the server id for
	// completions.
	TiebreakID() int
	Execute(*Engine)
}

// ArrivalEvent is the arrival of a new request into the system.
type ArrivalEvent struct {
	time    int64
	Request workload.Request
}

func (e *ArrivalEvent) Timestamp() int64 { return e.time }
func (e *ArrivalEvent) Kind() EventKind  { return KindRequestArrival }
func (e *ArrivalEvent) TiebreakID() int  { return e.Request.ID }

func (e *ArrivalEvent) Execute(eng *Engine) {
	eng.handleArrival(e.Request)
}

// CompletionEvent releases one unit of capacity on a server. It carries no
// response to record; the assignment was recorded at arrival time.
type CompletionEvent struct {
	time      int64
	ServerID  int
	RequestID int
}

func (e *CompletionEvent) Timestamp() int64 { return e.time }
func (e *CompletionEvent) Kind() EventKind  { return KindRequestComplete }
func (e *CompletionEvent) TiebreakID() int  { return e.ServerID }

func (e *CompletionEvent) Execute(eng *Engine) {
	eng.handleCompletion(e.ServerID)
}
