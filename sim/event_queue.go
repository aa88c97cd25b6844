package sim

import "container/heap"

// EventQueue is a min-priority queue of events with deterministic total
// ordering: timestamp, then event kind (completions before arrivals), then
// the event's own numeric id.
// Built on container/heap; see https://pkg.go.dev/container/heap
type EventQueue struct {
	events []Event
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{events: make([]Event, 0)}
	heap.Init(q)
	return q
}

func (q *EventQueue) Len() int { return len(q.events) }

func (q *EventQueue) Less(i, j int) bool {
	ei, ej := q.events[i], q.events[j]
	if ei.Timestamp() != ej.Timestamp() {
		return ei.Timestamp() < ej.Timestamp()
	}
	if ei.Kind() != ej.Kind() {
		return ei.Kind() < ej.Kind()
	}
	return ei.TiebreakID() < ej.TiebreakID()
}

func (q *EventQueue) Swap(i, j int) {
	q.events[i], q.events[j] = q.events[j], q.events[i]
}

func (q *EventQueue) Push(x any) {
	q.events = append(q.events, x.(Event))
}

func (q *EventQueue) Pop() any {
	old := q.events
	n := len(old)
	item := old[n-1]
	q.events = old[0 : n-1]
	return item
}

// Schedule adds an event to the queue.
func (q *EventQueue) Schedule(e Event) {
	heap.Push(q, e)
}

// PopNext removes and returns the minimum event, or nil when empty.
func (q *EventQueue) PopNext() Event {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(Event)
}

// Peek returns the minimum event without removing it, or nil when empty.
func (q *EventQueue) Peek() Event {
	if q.Len() == 0 {
		return nil
	}
	return q.events[0]
}
