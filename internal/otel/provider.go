// Package otel provides OpenTelemetry tracer provider initialization and management.
package otel

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrzor/trace-model/internal/config"
)

// logProxyConfiguration logs proxy settings, which the HTTP exporter honors
// through Go's standard transport.
func logProxyConfiguration() {
	httpProxy := os.Getenv("HTTP_PROXY")
	if httpProxy == "" {
		httpProxy = os.Getenv("http_proxy")
	}
	httpsProxy := os.Getenv("HTTPS_PROXY")
	if httpsProxy == "" {
		httpsProxy = os.Getenv("https_proxy")
	}

	if httpProxy != "" || httpsProxy != "" {
		log.WithFields(log.Fields{
			"http_proxy":  httpProxy,
			"https_proxy": httpsProxy,
		}).Debug("proxy configuration")
	}
}

// InitProvider initializes the OpenTelemetry tracer provider exporting over
// OTLP/HTTP. When traceID is valid every root span created by the provider
// uses it, so the exported model lands in a caller-chosen trace.
func InitProvider(ctx context.Context, cfg *config.OTELConfig, traceID trace.TraceID) (*sdktrace.TracerProvider, error) {
	endpoint := cfg.GetEndpoint()

	log.WithFields(log.Fields{
		"service_name": cfg.ServiceName,
		"endpoint":     endpoint,
		"insecure":     cfg.Insecure,
	}).Debug("OTEL configuration")
	logProxyConfiguration()

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithTimeout(cfg.Timeout),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	resourceAttrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	}
	if customAttrs := cfg.ParseResourceAttributes(); len(customAttrs) > 0 {
		resourceAttrs = append(resourceAttrs, resource.WithAttributes(customAttrs...))
	}

	res, err := resource.New(ctx, resourceAttrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	}
	if traceID.IsValid() {
		providerOpts = append(providerOpts, sdktrace.WithIDGenerator(NewFixedTraceIDGenerator(traceID)))
	}

	return sdktrace.NewTracerProvider(providerOpts...), nil
}

// ShutdownProvider gracefully shuts down the tracer provider, flushing any remaining spans.
func ShutdownProvider(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}

	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}

	return nil
}

// FixedTraceIDGenerator assigns one trace ID to every root span and random
// span IDs to all spans.
type FixedTraceIDGenerator struct {
	traceID trace.TraceID
}

var _ sdktrace.IDGenerator = (*FixedTraceIDGenerator)(nil)

// NewFixedTraceIDGenerator returns a generator for traceID.
func NewFixedTraceIDGenerator(traceID trace.TraceID) *FixedTraceIDGenerator {
	return &FixedTraceIDGenerator{traceID: traceID}
}

// NewIDs implements sdktrace.IDGenerator.
func (g *FixedTraceIDGenerator) NewIDs(ctx context.Context) (trace.TraceID, trace.SpanID) {
	return g.traceID, g.NewSpanID(ctx, g.traceID)
}

// NewSpanID implements sdktrace.IDGenerator.
func (g *FixedTraceIDGenerator) NewSpanID(_ context.Context, _ trace.TraceID) trace.SpanID {
	var sid trace.SpanID
	for !sid.IsValid() {
		_, _ = rand.Read(sid[:]) //nolint:errcheck // crypto/rand.Read never fails
	}
	return sid
}
