package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of exporter spans.
const TracerName = "github.com/dagucloud/athenahistory"

// TracingConfig configures span export over OTLP/gRPC.
type TracingConfig struct {
	// Endpoint is host:port of the collector. Tracing is disabled when empty.
	Endpoint    string
	Insecure    bool
	Headers     map[string]string
	Timeout     time.Duration
	ServiceName string
}

// Tracer wraps an OpenTelemetry tracer and the provider that owns it.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// NewTracer returns a tracer exporting to cfg.Endpoint, or one backed by the
// global provider (a no-op unless installed elsewhere) when no endpoint is set.
func NewTracer(ctx context.Context, cfg TracingConfig) (*Tracer, error) {
	if cfg.Endpoint == "" {
		return &Tracer{tracer: otel.Tracer(TracerName)}, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlptracegrpc.WithTimeout(cfg.Timeout))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = namespace
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	otel.SetTracerProvider(provider)

	return &Tracer{tracer: provider.Tracer(TracerName), provider: provider}, nil
}

// Start starts a span.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Trace returns the underlying tracer.
func (t *Tracer) Trace() trace.Tracer {
	return t.tracer
}

// Shutdown flushes pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}
