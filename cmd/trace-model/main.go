// trace-model loads Trace Event Format captures, rebuilds their process and
// thread model, prints a summary and optionally exports it as OpenTelemetry spans.
package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrzor/trace-model/internal/attributes"
	"github.com/mrzor/trace-model/internal/config"
	"github.com/mrzor/trace-model/internal/eventstream"
	"github.com/mrzor/trace-model/internal/model"
	"github.com/mrzor/trace-model/internal/otel"
	"github.com/mrzor/trace-model/internal/output"
	"github.com/mrzor/trace-model/internal/timesync"
)

// Version information injected by GoReleaser at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func setupLogging(verbose bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		QuoteEmptyFields: true,
	})
	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// buildModel feeds every capture into one trace, in argument order, and
// returns the merged otherData headers (later captures win).
func buildModel(captures []*eventstream.Capture) (*model.Trace, map[string]any) {
	tr := model.NewTrace(model.WithLogger(log.StandardLogger()))
	other := make(map[string]any)

	for _, capture := range captures {
		tr.AddEvents(capture.Events)
		maps.Copy(other, capture.Header.OtherData)
		log.WithFields(log.Fields{
			"path":   capture.Path,
			"events": len(capture.Events),
		}).Debug("capture added to model")
	}

	return tr, other
}

// setupExport evaluates the trace-level expressions and builds the formatter
// and its tracer provider.
func setupExport(ctx context.Context, cfg *config.Config, tr *model.Trace, other map[string]any) (*output.OTELFormatter, func(), error) {
	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse OTEL config: %w", err)
	}

	traceIDEval, err := attributes.NewTraceIDEvaluator(cfg.TraceID)
	if err != nil {
		return nil, nil, err
	}
	parentIDEval, err := attributes.NewParentIDEvaluator(cfg.ParentID)
	if err != nil {
		return nil, nil, err
	}
	evaluator, err := attributes.NewEvaluator(cfg.CustomAttributes)
	if err != nil {
		return nil, nil, err
	}

	env := attributes.TraceEnv(tr, other)
	traceID, traceWarnings, err := traceIDEval.EvaluateAndValidate(env)
	if err != nil {
		return nil, nil, err
	}
	parentID, parentWarnings, err := parentIDEval.EvaluateAndValidate(env)
	if err != nil {
		return nil, nil, err
	}

	rootAttrs := []attribute.KeyValue{
		attribute.String("capture.files", strings.Join(cfg.Inputs, ",")),
		attribute.String("trace_model.version", fmt.Sprintf("%s (%s)", version, commit)),
	}
	rootAttrs = append(rootAttrs, traceWarnings...)
	rootAttrs = append(rootAttrs, parentWarnings...)

	var converter *timesync.Converter
	if cfg.Anchor.IsZero() {
		converter, err = timesync.NewConverter()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create time converter: %w", err)
		}
	} else {
		converter = timesync.NewAnchoredConverter(cfg.Anchor, tr.Bounds().Min())
	}

	tp, err := otel.InitProvider(ctx, otelCfg, traceID)
	if err != nil {
		return nil, nil, fmt.Errorf("ABORT: failed to initialize OTEL provider: %w", err)
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otel.ShutdownProvider(shutdownCtx, tp); err != nil {
			log.Errorf("Error shutting down OTEL provider: %v", err)
		}
	}

	opts := []output.FormatterOption{
		output.WithEvaluator(evaluator),
		output.WithRootAttributes(rootAttrs...),
	}
	if parentID.IsValid() {
		if traceID.IsValid() {
			opts = append(opts, output.WithParent(trace.NewSpanContext(trace.SpanContextConfig{
				TraceID:    traceID,
				SpanID:     parentID,
				TraceFlags: trace.FlagsSampled,
				Remote:     true,
			})))
		} else {
			log.Warn("parent-id ignored: it requires a trace-id")
		}
	}

	return output.NewOTELFormatter(tp.Tracer("trace-model"), converter, opts...), cleanup, nil
}

func run() error {
	cfg, err := config.ParseArgs(os.Args)
	if err != nil {
		return err
	}
	if cfg.Version {
		fmt.Printf("trace-model %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	}

	setupLogging(cfg.Verbose)
	log.Debugf("Starting trace-model %s (commit: %s, built: %s)", version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	captures, err := eventstream.LoadFiles(ctx, cfg.Inputs)
	if err != nil {
		return err
	}

	tr, other := buildModel(captures)

	if err := output.WriteSummary(os.Stdout, tr, cfg.Format); err != nil {
		return err
	}

	if !cfg.Export {
		return nil
	}

	formatter, cleanup, err := setupExport(ctx, cfg, tr, other)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := formatter.Export(ctx, tr); err != nil {
		return fmt.Errorf("exporting trace: %w", err)
	}

	return nil
}
