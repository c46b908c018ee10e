package output

import (
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/mrzor/trace-model/internal/model"
	"github.com/mrzor/trace-model/internal/traceevent"
)

func dur(v float64) *float64 { return &v }

func ev(ph traceevent.Phase, name string, pid, tid int64, ts float64) *traceevent.Event {
	return &traceevent.Event{Phase: ph, Name: name, Pid: pid, Tid: tid, Ts: ts}
}

// buildTrace returns a small browser capture:
//
//	pid 1 "Browser", tid 1 "CrBrowserMain":
//	  X RunTask [100, 150]
//	  B Outer 110 ... E 140, with X Inner [120, 125] inside
//	  global instant at 130, stray E at 145
//	  B Dangling 160 never ended, thread instant at 170
//	pid 2, tid 5: one counter sample at 200
func buildTrace() *model.Trace {
	logger, _ := logtest.NewNullLogger()
	tr := model.NewTrace(model.WithLogger(logger))

	runTask := ev(traceevent.PhaseComplete, "RunTask", 1, 1, 100)
	runTask.Dur = dur(50)
	runTask.Category = "toplevel"
	runTask.Args = map[string]any{"src": "main.cc", "n": 3.0}

	inner := ev(traceevent.PhaseComplete, "Inner", 1, 1, 120)
	inner.Dur = dur(5)

	global := ev(traceevent.PhaseInstant, "Navigate", 1, 1, 130)
	global.Scope = "g"

	outerEnd := ev(traceevent.PhaseEnd, "", 1, 1, 140)
	outerEnd.Args = map[string]any{"status": "ok"}

	tr.AddEvents([]*traceevent.Event{
		{Phase: traceevent.PhaseMetadata, Name: "num_cpus", Args: map[string]any{"number": 8.0}},
		{Phase: traceevent.PhaseMetadata, Name: "process_name", Pid: 1, Args: map[string]any{"name": model.BrowserProcessName}},
		{Phase: traceevent.PhaseMetadata, Name: "thread_name", Pid: 1, Tid: 1, Args: map[string]any{"name": "CrBrowserMain"}},
		runTask,
		ev(traceevent.PhaseBegin, "Outer", 1, 1, 110),
		inner,
		global,
		outerEnd,
		ev(traceevent.PhaseEnd, "", 1, 1, 145),
		ev(traceevent.PhaseBegin, "Dangling", 1, 1, 160),
		ev(traceevent.PhaseInstant, "Tick", 1, 1, 170),
		ev(traceevent.PhaseCounter, "Memory", 2, 5, 200),
	})
	return tr
}
