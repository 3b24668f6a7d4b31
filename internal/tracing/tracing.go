// Package tracing builds the OpenTelemetry tracer used to trace inbound view
// commands. Tracing is off unless enabled in config and an OTLP endpoint is
// set; otherwise a no-op tracer is returned and nothing is exported.
package tracing

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// EndpointEnv is the standard OTLP endpoint variable.
const EndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"

// InstrumentationName names the tracer spans are recorded under.
const InstrumentationName = "github.com/Iron-Ham/ralphui"

// Config controls tracing.
type Config struct {
	Enabled     bool
	ServiceName string
	// Endpoint overrides EndpointEnv. Either host:port or a full URL.
	Endpoint string
}

// Provider owns the tracer and, when exporting, the SDK pipeline behind it.
type Provider struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// New returns a Provider for cfg. A disabled config or a missing endpoint
// yields a no-op Provider and no error.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv(EndpointEnv)
	}
	if !cfg.Enabled || endpoint == "" {
		return Noop(), nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure()}
	if strings.Contains(endpoint, "://") {
		opts = []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return newWithProcessor(cfg.ServiceName, sdktrace.NewBatchSpanProcessor(exporter)), nil
}

// Noop returns a Provider that records nothing.
func Noop() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer(InstrumentationName)}
}

func newWithProcessor(serviceName string, sp sdktrace.SpanProcessor) *Provider {
	if serviceName == "" {
		serviceName = "ralphui"
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sp),
		sdktrace.WithResource(res),
	)
	return &Provider{tracer: tp.Tracer(InstrumentationName), provider: tp}
}

// Tracer returns the tracer to hand to view controllers.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Exporting reports whether spans leave the process.
func (p *Provider) Exporting() bool {
	return p != nil && p.provider != nil
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}
