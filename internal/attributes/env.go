package attributes

import (
	"github.com/mrzor/trace-model/internal/model"
	"github.com/mrzor/trace-model/internal/traceevent"
)

// eventEnvShape is used to type-check event expressions at compile time.
var eventEnvShape = map[string]any{
	"name":    "",
	"cat":     "",
	"ph":      "",
	"ts":      0.0,
	"dur":     0.0,
	"pid":     0,
	"tid":     0,
	"args":    map[string]any{},
	"process": "",
	"thread":  "",
	"labels":  "",
}

// traceEnvShape is used to type-check trace-level expressions at compile time.
var traceEnvShape = map[string]any{
	"processes": []string{},
	"browser":   "",
	"gpu":       "",
	"renderers": []string{},
	"cpus":      0,
	"events":    0,
	"duration":  0.0,
	"other":     map[string]any{},
}

// EventEnv builds the evaluation environment of a timed event.
func EventEnv(ev *traceevent.Event, process *model.Process, thread *model.Thread) map[string]any {
	args := ev.Args
	if args == nil {
		args = map[string]any{}
	}

	env := map[string]any{
		"name":    ev.Name,
		"cat":     ev.Category,
		"ph":      string(ev.Phase),
		"ts":      ev.Ts,
		"dur":     ev.Duration(),
		"pid":     int(ev.Pid),
		"tid":     int(ev.Tid),
		"args":    args,
		"process": "",
		"thread":  "",
		"labels":  "",
	}
	if process != nil {
		env["process"] = process.Name
		env["labels"] = process.Labels
	}
	if thread != nil {
		env["thread"] = thread.Name
	}
	return env
}

// TraceEnv builds the evaluation environment of a whole trace. other carries
// the capture's otherData header, and may be nil.
func TraceEnv(tr *model.Trace, other map[string]any) map[string]any {
	if other == nil {
		other = map[string]any{}
	}

	processes := make([]string, 0, len(tr.Processes()))
	for _, p := range tr.SortedProcesses() {
		processes = append(processes, p.DisplayName())
	}
	renderers := make([]string, 0, len(tr.RendererProcesses()))
	for _, p := range tr.RendererProcesses() {
		renderers = append(renderers, p.DisplayName())
	}

	env := map[string]any{
		"processes": processes,
		"browser":   "",
		"gpu":       "",
		"renderers": renderers,
		"cpus":      0,
		"events":    len(tr.Events()),
		"duration":  tr.Bounds().Range(),
		"other":     other,
	}
	if p := tr.BrowserProcess(); p != nil {
		env["browser"] = p.DisplayName()
	}
	if p := tr.GPUProcess(); p != nil {
		env["gpu"] = p.DisplayName()
	}
	if n, ok := tr.NumberOfProcessors(); ok {
		env["cpus"] = int(n)
	}
	return env
}
