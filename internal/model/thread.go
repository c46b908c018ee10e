package model

import (
	"github.com/mrzor/trace-model/internal/bounds"
	"github.com/mrzor/trace-model/internal/traceevent"
)

// Thread is a traced thread, owned by its Process.
type Thread struct {
	Pid int64
	Tid int64

	Name      string
	SortIndex *int64

	events []*traceevent.Event
	bounds bounds.Bounds
}

func newThread(pid, tid int64) *Thread {
	return &Thread{Pid: pid, Tid: tid}
}

// Events returns the timed events routed to this thread, in arrival order.
func (t *Thread) Events() []*traceevent.Event {
	return t.events
}

// Bounds returns the time envelope of this thread's events.
func (t *Thread) Bounds() *bounds.Bounds {
	return &t.bounds
}

func (t *Thread) addEvent(ev *traceevent.Event) {
	t.events = append(t.events, ev)
	t.bounds.AddEvent(ev)
}
