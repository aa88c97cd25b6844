package sim

import (
	"testing"

	"github.com/lb-sim/lb-sim/sim/workload"
)

func TestEventQueue_OrdersByTimestamp(t *testing.T) {
	// GIVEN events scheduled out of order
	q := NewEventQueue()
	q.Schedule(&ArrivalEvent{time: 30, Request: workload.Request{ID: 1, ArrivalMs: 30}})
	q.Schedule(&ArrivalEvent{time: 10, Request: workload.Request{ID: 2, ArrivalMs: 10}})
	q.Schedule(&ArrivalEvent{time: 20, Request: workload.Request{ID: 3, ArrivalMs: 20}})

	// WHEN draining the queue
	var times []int64
	for q.Len() > 0 {
		times = append(times, q.PopNext().Timestamp())
	}

	// THEN events come out in ascending time order
	want := []int64{10, 20, 30}
	for i, ts := range times {
		if ts != want[i] {
			t.Errorf("pop order[%d]: got %d, want %d", i, ts, want[i])
		}
	}
}

func TestEventQueue_CompletionBeforeArrivalAtSameInstant(t *testing.T) {
	// GIVEN a completion and an arrival sharing a timestamp, arrival pushed first
	q := NewEventQueue()
	q.Schedule(&ArrivalEvent{time: 5, Request: workload.Request{ID: 7, ArrivalMs: 5}})
	q.Schedule(&CompletionEvent{time: 5, ServerID: 0, RequestID: 1})

	// THEN the completion is popped first so capacity frees before routing
	if _, ok := q.PopNext().(*CompletionEvent); !ok {
		t.Fatal("expected completion to order before same-instant arrival")
	}
	if _, ok := q.PopNext().(*ArrivalEvent); !ok {
		t.Fatal("expected arrival after completion")
	}
}

func TestEventQueue_SameKindTiebreaksByID(t *testing.T) {
	// GIVEN same-instant arrivals scheduled in reverse id order
	q := NewEventQueue()
	q.Schedule(&ArrivalEvent{time: 0, Request: workload.Request{ID: 3}})
	q.Schedule(&ArrivalEvent{time: 0, Request: workload.Request{ID: 1}})
	q.Schedule(&ArrivalEvent{time: 0, Request: workload.Request{ID: 2}})

	// THEN they pop in request-id order
	for wantID := 1; wantID <= 3; wantID++ {
		ev := q.PopNext().(*ArrivalEvent)
		if ev.Request.ID != wantID {
			t.Errorf("tiebreak order: got id %d, want %d", ev.Request.ID, wantID)
		}
	}

	// AND same-instant completions pop in server-id order
	q.Schedule(&CompletionEvent{time: 0, ServerID: 2, RequestID: 9})
	q.Schedule(&CompletionEvent{time: 0, ServerID: 0, RequestID: 8})
	q.Schedule(&CompletionEvent{time: 0, ServerID: 1, RequestID: 7})
	for wantID := 0; wantID <= 2; wantID++ {
		ev := q.PopNext().(*CompletionEvent)
		if ev.ServerID != wantID {
			t.Errorf("completion tiebreak: got server %d, want %d", ev.ServerID, wantID)
		}
	}
}

func TestEventQueue_EmptyReturnsNil(t *testing.T) {
	q := NewEventQueue()
	if q.PopNext() != nil {
		t.Error("PopNext on empty queue: want nil")
	}
	if q.Peek() != nil {
		t.Error("Peek on empty queue: want nil")
	}
}

func TestEventQueue_PeekDoesNotRemove(t *testing.T) {
	q := NewEventQueue()
	q.Schedule(&ArrivalEvent{time: 1, Request: workload.Request{ID: 1}})

	if q.Peek() == nil || q.Len() != 1 {
		t.Fatalf("Peek modified queue: len=%d", q.Len())
	}
}
