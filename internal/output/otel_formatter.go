package output

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrzor/trace-model/internal/attributes"
	"github.com/mrzor/trace-model/internal/model"
	"github.com/mrzor/trace-model/internal/timesync"
	"github.com/mrzor/trace-model/internal/traceevent"
)

// Instant event scopes, carried in the "s" field.
const (
	scopeGlobal  = "g"
	scopeProcess = "p"
)

// ExportStats counts what an export produced and dropped.
type ExportStats struct {
	Spans              int
	SpanEvents         int
	UnmatchedEnds      int
	UnterminatedBegins int
	Skipped            int
}

// OTELFormatter exports a trace model as OpenTelemetry spans.
type OTELFormatter struct {
	tracer    trace.Tracer
	converter *timesync.Converter
	evaluator *attributes.Evaluator
	parent    trace.SpanContext
	rootAttrs []attribute.KeyValue
	logger    log.FieldLogger
}

// FormatterOption configures an OTELFormatter.
type FormatterOption func(*OTELFormatter)

// WithEvaluator sets the custom attribute evaluator run on every event span.
func WithEvaluator(evaluator *attributes.Evaluator) FormatterOption {
	return func(f *OTELFormatter) {
		f.evaluator = evaluator
	}
}

// WithParent makes the root span a child of a remote span.
func WithParent(parent trace.SpanContext) FormatterOption {
	return func(f *OTELFormatter) {
		f.parent = parent
	}
}

// WithRootAttributes adds attributes to the root span.
func WithRootAttributes(attrs ...attribute.KeyValue) FormatterOption {
	return func(f *OTELFormatter) {
		f.rootAttrs = append(f.rootAttrs, attrs...)
	}
}

// WithFormatterLogger sets the logger used for export diagnostics.
func WithFormatterLogger(logger log.FieldLogger) FormatterOption {
	return func(f *OTELFormatter) {
		f.logger = logger
	}
}

// NewOTELFormatter creates a new OTELFormatter.
func NewOTELFormatter(tracer trace.Tracer, converter *timesync.Converter, opts ...FormatterOption) *OTELFormatter {
	f := &OTELFormatter{
		tracer:    tracer,
		converter: converter,
		logger:    log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// openSpan is a B event waiting for its E.
type openSpan struct {
	span  trace.Span
	ctx   context.Context
	begin *traceevent.Event
}

// Export emits the whole model. Spans are created with explicit timestamps;
// flushing them is the tracer provider's job.
func (f *OTELFormatter) Export(ctx context.Context, tr *model.Trace) (ExportStats, error) {
	var stats ExportStats

	tb := tr.Bounds()
	if tb.IsEmpty() {
		f.logger.Warn("trace has no timed events, nothing to export")
		return stats, nil
	}

	if f.parent.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, f.parent)
	}

	rootAttrs := []attribute.KeyValue{
		attribute.Int("trace.events", len(tr.Events())),
		attribute.Int("trace.processes", len(tr.Processes())),
	}
	if n, ok := tr.NumberOfProcessors(); ok {
		rootAttrs = append(rootAttrs, attribute.Int64("host.cpu.count", n))
	}
	if p := tr.BrowserProcess(); p != nil {
		rootAttrs = append(rootAttrs, attribute.Int64("trace.browser_pid", p.Pid))
	}
	if p := tr.GPUProcess(); p != nil {
		rootAttrs = append(rootAttrs, attribute.Int64("trace.gpu_pid", p.Pid))
	}
	rootAttrs = append(rootAttrs, f.rootAttrs...)

	rootCtx, root := f.tracer.Start(ctx, "trace",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(f.converter.MicrosToWallClock(tb.Min())),
		trace.WithAttributes(rootAttrs...),
	)
	stats.Spans++

	for _, p := range tr.SortedProcesses() {
		if err := ctx.Err(); err != nil {
			root.SetStatus(codes.Error, "export cancelled")
			root.End(trace.WithTimestamp(f.converter.MicrosToWallClock(tb.Max())))
			return stats, fmt.Errorf("exporting process %d: %w", p.Pid, err)
		}
		f.exportProcess(rootCtx, root, p, &stats)
	}

	root.End(trace.WithTimestamp(f.converter.MicrosToWallClock(tb.Max())))

	f.logger.WithFields(log.Fields{
		"spans":               stats.Spans,
		"span_events":         stats.SpanEvents,
		"unmatched_ends":      stats.UnmatchedEnds,
		"unterminated_begins": stats.UnterminatedBegins,
		"skipped":             stats.Skipped,
	}).Info("exported trace")

	return stats, nil
}

func (f *OTELFormatter) exportProcess(ctx context.Context, root trace.Span, p *model.Process, stats *ExportStats) {
	pb := p.Bounds()
	if pb.IsEmpty() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Int64("process.pid", p.Pid),
		attribute.Int("process.events", p.EventCount()),
	}
	if p.Name != "" {
		attrs = append(attrs, attribute.String("process.name", p.Name))
	}
	if p.Labels != "" {
		attrs = append(attrs, attribute.String("process.labels", p.Labels))
	}
	if p.TraceBufferOverflowedAt != nil {
		attrs = append(attrs, attribute.Float64("process.trace_buffer_overflowed_at", *p.TraceBufferOverflowedAt))
	}

	processCtx, span := f.tracer.Start(ctx, p.DisplayName(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(f.converter.MicrosToWallClock(pb.Min())),
		trace.WithAttributes(attrs...),
	)
	stats.Spans++

	for _, th := range p.SortedThreads() {
		f.exportThread(processCtx, root, span, p, th, stats)
	}

	span.End(trace.WithTimestamp(f.converter.MicrosToWallClock(pb.Max())))
}

func (f *OTELFormatter) exportThread(ctx context.Context, root, processSpan trace.Span, p *model.Process, th *model.Thread, stats *ExportStats) {
	tb := th.Bounds()
	if tb.IsEmpty() {
		return
	}

	name := th.Name
	if name == "" {
		name = fmt.Sprintf("tid %d", th.Tid)
	}
	attrs := []attribute.KeyValue{
		attribute.Int64("process.pid", p.Pid),
		attribute.Int64("thread.id", th.Tid),
	}
	if th.Name != "" {
		attrs = append(attrs, attribute.String("thread.name", th.Name))
	}
	if p.MainThread == th {
		attrs = append(attrs, attribute.Bool("thread.main", true))
	}

	threadCtx, span := f.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(f.converter.MicrosToWallClock(tb.Min())),
		trace.WithAttributes(attrs...),
	)
	stats.Spans++

	var stack []openSpan
	parentCtx := func() context.Context {
		if len(stack) > 0 {
			return stack[len(stack)-1].ctx
		}
		return threadCtx
	}

	for _, ev := range th.Events() {
		switch ev.Phase {
		case traceevent.PhaseComplete:
			_, s := f.startEventSpan(parentCtx(), ev, p, th)
			s.End(trace.WithTimestamp(f.converter.MicrosToWallClock(ev.End())))
			stats.Spans++

		case traceevent.PhaseBegin:
			beginCtx, s := f.startEventSpan(parentCtx(), ev, p, th)
			stack = append(stack, openSpan{span: s, ctx: beginCtx, begin: ev})

		case traceevent.PhaseEnd:
			if len(stack) == 0 {
				stats.UnmatchedEnds++
				f.logger.WithFields(log.Fields{
					"pid":  ev.Pid,
					"tid":  ev.Tid,
					"name": ev.Name,
					"ts":   ev.Ts,
				}).Debug("end event without matching begin")
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(ev.Args) > 0 {
				top.span.SetAttributes(argAttributes(ev.Args)...)
			}
			top.span.End(trace.WithTimestamp(f.converter.MicrosToWallClock(ev.Ts)))
			stats.Spans++

		case traceevent.PhaseInstant, traceevent.PhaseInstantLegacy, traceevent.PhaseMark:
			target := span
			switch ev.Scope {
			case scopeGlobal:
				target = root
			case scopeProcess:
				target = processSpan
			}
			target.AddEvent(ev.Name,
				trace.WithTimestamp(f.converter.MicrosToWallClock(ev.Ts)),
				trace.WithAttributes(eventAttributes(ev)...),
			)
			stats.SpanEvents++

		default:
			stats.Skipped++
		}
	}

	// Unterminated begins close at the thread's last known timestamp.
	for i := len(stack) - 1; i >= 0; i-- {
		s := stack[i].span
		f.logger.WithFields(log.Fields{
			"pid":  p.Pid,
			"tid":  th.Tid,
			"name": stack[i].begin.Name,
			"ts":   stack[i].begin.Ts,
		}).Debug("begin event without matching end")
		s.SetAttributes(attribute.Bool("trace_event.unterminated", true))
		s.End(trace.WithTimestamp(f.converter.MicrosToWallClock(tb.Max())))
		stats.Spans++
		stats.UnterminatedBegins++
	}

	span.End(trace.WithTimestamp(f.converter.MicrosToWallClock(tb.Max())))
}

func (f *OTELFormatter) startEventSpan(ctx context.Context, ev *traceevent.Event, p *model.Process, th *model.Thread) (context.Context, trace.Span) {
	attrs := eventAttributes(ev)
	if f.evaluator != nil && f.evaluator.Len() > 0 {
		attrs = append(attrs, f.evaluator.EvaluateCustomAttributes(attributes.EventEnv(ev, p, th))...)
	}

	return f.tracer.Start(ctx, ev.Name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithTimestamp(f.converter.MicrosToWallClock(ev.Ts)),
		trace.WithAttributes(attrs...),
	)
}

func eventAttributes(ev *traceevent.Event) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("trace_event.phase", string(ev.Phase)),
	}
	if ev.Category != "" {
		attrs = append(attrs, attribute.String("trace_event.category", ev.Category))
	}
	if ev.ID != "" {
		attrs = append(attrs, attribute.String("trace_event.id", string(ev.ID)))
	}
	return append(attrs, argAttributes(ev.Args)...)
}

// argAttributes turns event args into "args.<key>" attributes, in key order.
// Nested values are encoded as JSON strings.
func argAttributes(args map[string]any) []attribute.KeyValue {
	if len(args) == 0 {
		return nil
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, argAttribute("args."+k, args[k]))
	}
	return attrs
}

func argAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case float64:
		if v == float64(int64(v)) {
			return attribute.Int64(key, int64(v))
		}
		return attribute.Float64(key, v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return attribute.Int64(key, i)
		}
		if fl, err := v.Float64(); err == nil {
			return attribute.Float64(key, fl)
		}
		return attribute.String(key, v.String())
	case nil:
		return attribute.String(key, "")
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return attribute.String(key, fmt.Sprint(v))
		}
		return attribute.String(key, string(encoded))
	}
}

