package model

import (
	"cmp"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/mrzor/trace-model/internal/bounds"
	"github.com/mrzor/trace-model/internal/traceevent"
)

// Trace aggregates a capture's events into processes and threads.
type Trace struct {
	processMap map[int64]*Process
	processes  []*Process
	bounds     bounds.Bounds
	events     []*traceevent.Event

	browserProcess    *Process
	gpuProcess        *Process
	rendererProcesses []*Process

	numberOfProcessors *int64

	logger log.FieldLogger
}

// Option configures a Trace.
type Option func(*Trace)

// WithLogger sets the logger that receives diagnostics such as
// unrecognized metadata. Defaults to the logrus standard logger.
func WithLogger(logger log.FieldLogger) Option {
	return func(t *Trace) {
		t.logger = logger
	}
}

// NewTrace creates an empty aggregation session.
func NewTrace(opts ...Option) *Trace {
	t := &Trace{
		processMap: make(map[int64]*Process),
		logger:     log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Process returns the process with the given pid, creating it on first use.
func (t *Trace) Process(pid int64) *Process {
	process, ok := t.processMap[pid]
	if !ok {
		process = newProcess(pid)
		t.processMap[pid] = process
		t.processes = append(t.processes, process)
	}
	return process
}

// Thread returns the thread (pid, tid), creating it and its process on first use.
func (t *Trace) Thread(pid, tid int64) *Thread {
	return t.Process(pid).Thread(tid)
}

// LookupProcess returns the process with the given pid without creating it.
func (t *Trace) LookupProcess(pid int64) (*Process, bool) {
	process, ok := t.processMap[pid]
	return process, ok
}

// AddEvents feeds events in order. It is equivalent to calling AddEvent for each.
func (t *Trace) AddEvents(events []*traceevent.Event) {
	for _, ev := range events {
		t.AddEvent(ev)
	}
}

// AddEvent records ev in the event log, then either applies it as metadata
// or widens the bounds and routes it to its process.
func (t *Trace) AddEvent(ev *traceevent.Event) {
	t.events = append(t.events, ev)
	if ev.IsMetadata() {
		t.addMetadata(ev)
		return
	}
	t.bounds.AddEvent(ev)
	t.Process(ev.Pid).AddEvent(ev)
}

// Events returns every event fed so far, in arrival order.
func (t *Trace) Events() []*traceevent.Event {
	return t.events
}

// Processes returns the processes in creation order.
func (t *Trace) Processes() []*Process {
	return t.processes
}

// SortedProcesses returns the processes by sort index (processes without one
// last), then by pid.
func (t *Trace) SortedProcesses() []*Process {
	sorted := slices.Clone(t.processes)
	slices.SortStableFunc(sorted, func(a, b *Process) int {
		if c := compareSortIndex(a.SortIndex, b.SortIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.Pid, b.Pid)
	})
	return sorted
}

// Bounds returns the time envelope of all timed events.
func (t *Trace) Bounds() *bounds.Bounds {
	return &t.bounds
}

// NumberOfProcessors returns the processor count reported by num_cpus
// metadata. ok is false until such metadata has been seen with a usable value.
func (t *Trace) NumberOfProcessors() (n int64, ok bool) {
	if t.numberOfProcessors == nil {
		return 0, false
	}
	return *t.numberOfProcessors, true
}

// BrowserProcess returns the process last named "Browser", or nil.
func (t *Trace) BrowserProcess() *Process {
	return t.browserProcess
}

// GPUProcess returns the process last named "GPU Process", or nil.
func (t *Trace) GPUProcess() *Process {
	return t.gpuProcess
}

// RendererProcesses returns the processes named "Renderer", in the order the
// naming metadata arrived.
func (t *Trace) RendererProcesses() []*Process {
	return t.rendererProcesses
}
