// Package model reconstructs the process/thread hierarchy of a trace capture.
//
// Trace is the aggregator. Events are fed one at a time (or as a batch) and
// routed by phase:
//
//	AddEvent(ev)
//	   │
//	   ├── append to the event log (always, metadata included)
//	   │
//	   ├── ph == "M" ──→ metadata dispatch
//	   │                 - num_cpus, process_*, thread_*, TraceConfig, ...
//	   │                 - caches Browser / GPU / Renderer processes
//	   │                 - caches CrRendererMain / ScriptStreamerThread threads
//	   │                 - unknown names: warning, no mutation
//	   │
//	   └── otherwise ──→ bounds.AddEvent ──→ Process(pid).AddEvent ──→ Thread(tid)
//
// Entities are only reachable through get-or-create lookups (Process, Thread),
// so there is at most one Process per pid and one Thread per (pid, tid).
// Every annotation is last-write-wins.
//
// A Trace is not safe for concurrent use. Build it from a single goroutine,
// then read it.
package model
