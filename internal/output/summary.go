package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/mrzor/trace-model/internal/bounds"
	"github.com/mrzor/trace-model/internal/config"
	"github.com/mrzor/trace-model/internal/model"
)

// Interval is a [start, end] pair in trace microseconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ThreadSummary describes one thread.
type ThreadSummary struct {
	Tid       int64     `json:"tid"`
	Name      string    `json:"name,omitempty"`
	SortIndex *int64    `json:"sort_index,omitempty"`
	Events    int       `json:"events"`
	Bounds    *Interval `json:"bounds,omitempty"`
}

// ProcessSummary describes one process and its threads.
type ProcessSummary struct {
	Pid                       int64           `json:"pid"`
	Name                      string          `json:"name,omitempty"`
	Labels                    string          `json:"labels,omitempty"`
	SortIndex                 *int64          `json:"sort_index,omitempty"`
	Events                    int             `json:"events"`
	Bounds                    *Interval       `json:"bounds,omitempty"`
	TraceBufferOverflowedAt   *float64        `json:"trace_buffer_overflowed_at,omitempty"`
	IsTimeTicksHighResolution bool            `json:"is_time_ticks_high_resolution,omitempty"`
	MainThread                *int64          `json:"main_thread,omitempty"`
	ScriptStreamerThread      *int64          `json:"script_streamer_thread,omitempty"`
	Threads                   []ThreadSummary `json:"threads"`
}

// Summary is a serializable view of a trace model.
type Summary struct {
	Events             int              `json:"events"`
	NumberOfProcessors *int64           `json:"number_of_processors,omitempty"`
	Bounds             *Interval        `json:"bounds,omitempty"`
	BrowserProcess     *int64           `json:"browser_process,omitempty"`
	GPUProcess         *int64           `json:"gpu_process,omitempty"`
	RendererProcesses  []int64          `json:"renderer_processes,omitempty"`
	Processes          []ProcessSummary `json:"processes"`
}

func intervalOf(b *bounds.Bounds) *Interval {
	if b.IsEmpty() {
		return nil
	}
	return &Interval{Start: b.Min(), End: b.Max()}
}

func pidOf(p *model.Process) *int64 {
	if p == nil {
		return nil
	}
	pid := p.Pid
	return &pid
}

func tidOf(t *model.Thread) *int64 {
	if t == nil {
		return nil
	}
	tid := t.Tid
	return &tid
}

// Summarize builds the summary of tr. Processes and threads are listed in
// viewer order (sort index, then id).
func Summarize(tr *model.Trace) *Summary {
	s := &Summary{
		Events:         len(tr.Events()),
		Bounds:         intervalOf(tr.Bounds()),
		BrowserProcess: pidOf(tr.BrowserProcess()),
		GPUProcess:     pidOf(tr.GPUProcess()),
		Processes:      make([]ProcessSummary, 0, len(tr.Processes())),
	}
	if n, ok := tr.NumberOfProcessors(); ok {
		s.NumberOfProcessors = &n
	}
	for _, p := range tr.RendererProcesses() {
		s.RendererProcesses = append(s.RendererProcesses, p.Pid)
	}

	for _, p := range tr.SortedProcesses() {
		ps := ProcessSummary{
			Pid:                       p.Pid,
			Name:                      p.Name,
			Labels:                    p.Labels,
			SortIndex:                 p.SortIndex,
			Events:                    p.EventCount(),
			Bounds:                    intervalOf(p.Bounds()),
			TraceBufferOverflowedAt:   p.TraceBufferOverflowedAt,
			IsTimeTicksHighResolution: p.IsTimeTicksHighResolution,
			MainThread:                tidOf(p.MainThread),
			ScriptStreamerThread:      tidOf(p.ScriptStreamerThread),
			Threads:                   make([]ThreadSummary, 0, len(p.Threads())),
		}
		for _, th := range p.SortedThreads() {
			ps.Threads = append(ps.Threads, ThreadSummary{
				Tid:       th.Tid,
				Name:      th.Name,
				SortIndex: th.SortIndex,
				Events:    len(th.Events()),
				Bounds:    intervalOf(th.Bounds()),
			})
		}
		s.Processes = append(s.Processes, ps)
	}

	return s
}

// WriteSummary writes the summary of tr to w in the given format
// (config.FormatText or config.FormatJSON).
func WriteSummary(w io.Writer, tr *model.Trace, format string) error {
	s := Summarize(tr)
	switch format {
	case config.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s); err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		return nil
	case config.FormatText:
		return writeText(w, s)
	default:
		return fmt.Errorf("unknown summary format %q", format)
	}
}

func writeText(w io.Writer, s *Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "events:\t%d\n", s.Events)
	fmt.Fprintf(tw, "processors:\t%s\n", optionalInt(s.NumberOfProcessors))
	fmt.Fprintf(tw, "bounds:\t%s\n", formatInterval(s.Bounds))
	fmt.Fprintf(tw, "browser:\t%s\n", optionalInt(s.BrowserProcess))
	fmt.Fprintf(tw, "gpu:\t%s\n", optionalInt(s.GPUProcess))
	fmt.Fprintf(tw, "renderers:\t%v\n", s.RendererProcesses)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "PID\tTID\tNAME\tEVENTS\tBOUNDS")
	for _, p := range s.Processes {
		name := p.Name
		if p.Labels != "" {
			name += " (" + p.Labels + ")"
		}
		fmt.Fprintf(tw, "%d\t\t%s\t%d\t%s\n", p.Pid, name, p.Events, formatInterval(p.Bounds))
		for _, th := range p.Threads {
			marker := ""
			if p.MainThread != nil && *p.MainThread == th.Tid {
				marker = " [main]"
			}
			fmt.Fprintf(tw, "\t%d\t%s%s\t%d\t%s\n", th.Tid, th.Name, marker, th.Events, formatInterval(th.Bounds))
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func optionalInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func formatInterval(iv *Interval) string {
	if iv == nil {
		return "-"
	}
	return fmt.Sprintf("[%g, %g] %gµs", iv.Start, iv.End, iv.End-iv.Start)
}
