package model

import (
	"cmp"
	"slices"

	"github.com/mrzor/trace-model/internal/bounds"
	"github.com/mrzor/trace-model/internal/traceevent"
)

// Process is a traced process and the registry of its threads.
type Process struct {
	Pid int64

	Name                    string
	Labels                  string
	SortIndex               *int64
	TraceBufferOverflowedAt *float64

	// Set when a thread named CrRendererMain / ScriptStreamerThread is seen.
	MainThread           *Thread
	ScriptStreamerThread *Thread

	IsTimeTicksHighResolution bool
	TraceConfig               any

	threadMap  map[int64]*Thread
	threads    []*Thread
	eventCount int
	bounds     bounds.Bounds
}

func newProcess(pid int64) *Process {
	return &Process{
		Pid:       pid,
		threadMap: make(map[int64]*Thread),
	}
}

// Thread returns the thread with the given tid, creating it on first use.
func (p *Process) Thread(tid int64) *Thread {
	thread, ok := p.threadMap[tid]
	if !ok {
		thread = newThread(p.Pid, tid)
		p.threadMap[tid] = thread
		p.threads = append(p.threads, thread)
	}
	return thread
}

// LookupThread returns the thread with the given tid without creating it.
func (p *Process) LookupThread(tid int64) (*Thread, bool) {
	thread, ok := p.threadMap[tid]
	return thread, ok
}

// Threads returns the threads in creation order.
func (p *Process) Threads() []*Thread {
	return p.threads
}

// SortedThreads returns the threads ordered the way trace viewers show them:
// by sort index (threads without one last), then by tid.
func (p *Process) SortedThreads() []*Thread {
	sorted := slices.Clone(p.threads)
	slices.SortStableFunc(sorted, func(a, b *Thread) int {
		if c := compareSortIndex(a.SortIndex, b.SortIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.Tid, b.Tid)
	})
	return sorted
}

// EventCount returns the number of timed events routed to this process.
func (p *Process) EventCount() int {
	return p.eventCount
}

// Bounds returns the time envelope of this process's events.
func (p *Process) Bounds() *bounds.Bounds {
	return &p.bounds
}

// AddEvent routes a timed event to the thread that emitted it.
func (p *Process) AddEvent(ev *traceevent.Event) {
	p.eventCount++
	p.bounds.AddEvent(ev)
	p.Thread(ev.Tid).addEvent(ev)
}

// DisplayName returns the process name, or a pid-based fallback.
func (p *Process) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return "pid " + formatID(p.Pid)
}

func compareSortIndex(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return cmp.Compare(*a, *b)
	}
}
