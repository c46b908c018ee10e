package model

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/mrzor/trace-model/internal/traceevent"
)

// MetadataKind identifies the annotation a metadata event carries.
type MetadataKind int

const (
	MetadataUnknown MetadataKind = iota
	MetadataNumCPUs
	MetadataProcessName
	MetadataProcessLabels
	MetadataProcessSortIndex
	MetadataTraceBufferOverflowed
	MetadataThreadName
	MetadataThreadSortIndex
	MetadataIsTimeTicksHighResolution
	MetadataTraceConfig
)

var metadataKinds = map[string]MetadataKind{
	"num_cpus":                  MetadataNumCPUs,
	"process_name":              MetadataProcessName,
	"process_labels":            MetadataProcessLabels,
	"process_sort_index":        MetadataProcessSortIndex,
	"trace_buffer_overflowed":   MetadataTraceBufferOverflowed,
	"thread_name":               MetadataThreadName,
	"thread_sort_index":         MetadataThreadSortIndex,
	"IsTimeTicksHighResolution": MetadataIsTimeTicksHighResolution,
	"TraceConfig":               MetadataTraceConfig,
}

// ParseMetadataKind maps a metadata event name to its kind.
// Names outside the known vocabulary map to MetadataUnknown.
func ParseMetadataKind(name string) MetadataKind {
	if kind, ok := metadataKinds[name]; ok {
		return kind
	}
	return MetadataUnknown
}

// Well-known process and thread names.
const (
	BrowserProcessName       = "Browser"
	GPUProcessName           = "GPU Process"
	RendererProcessName      = "Renderer"
	RendererMainThreadName   = "CrRendererMain"
	ScriptStreamerThreadName = "ScriptStreamerThread"
)

// addMetadata applies a metadata event to the entity it annotates.
func (t *Trace) addMetadata(ev *traceevent.Event) {
	pid, tid := ev.Pid, ev.Tid

	switch ParseMetadataKind(ev.Name) {
	case MetadataNumCPUs:
		t.numberOfProcessors = argInt(ev.Args, "number")
	case MetadataProcessName:
		name := argString(ev.Args, "name")
		process := t.Process(pid)
		process.Name = name
		switch name {
		case GPUProcessName:
			t.gpuProcess = process
		case BrowserProcessName:
			t.browserProcess = process
		case RendererProcessName:
			t.rendererProcesses = append(t.rendererProcesses, process)
		}
	case MetadataProcessLabels:
		t.Process(pid).Labels = argString(ev.Args, "labels")
	case MetadataProcessSortIndex:
		t.Process(pid).SortIndex = argInt(ev.Args, "sort_index")
	case MetadataTraceBufferOverflowed:
		t.Process(pid).TraceBufferOverflowedAt = argFloat(ev.Args, "overflowed_at_ts")
	case MetadataThreadName:
		name := argString(ev.Args, "name")
		thread := t.Thread(pid, tid)
		thread.Name = name
		switch name {
		case RendererMainThreadName:
			t.Process(pid).MainThread = thread
		case ScriptStreamerThreadName:
			t.Process(pid).ScriptStreamerThread = thread
		}
	case MetadataThreadSortIndex:
		t.Thread(pid, tid).SortIndex = argInt(ev.Args, "sort_index")
	case MetadataIsTimeTicksHighResolution:
		t.Process(pid).IsTimeTicksHighResolution = argBool(ev.Args, "value")
	case MetadataTraceConfig:
		t.Process(pid).TraceConfig = ev.Args["value"]
	case MetadataUnknown:
		t.warnUnrecognized(ev)
	}
}

func (t *Trace) warnUnrecognized(ev *traceevent.Event) {
	serialized, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		t.logger.WithFields(log.Fields{
			"name":  ev.Name,
			"pid":   ev.Pid,
			"error": err,
		}).Warn("unrecognized metadata")
		return
	}
	t.logger.Warnf("unrecognized metadata: %s", serialized)
}
