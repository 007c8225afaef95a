package exporter

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/logredact/logredact/internal/config"
)

// NewOTLPProvider builds a batching tracer provider that ships spans to an
// OTLP/HTTP collector. The sample rate is applied to root spans only.
func NewOTLPProvider(ctx context.Context, endpoint string, sampleRate float64) (*sdktrace.TracerProvider, error) {
	if endpoint == "" {
		endpoint = config.DefaultOTLPEndpoint
	}

	otlpExporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithTimeout(config.TracingExporterTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.DefaultServiceName),
			semconv.ServiceVersionKey.String(config.GetVersion()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(otlpExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(sampleRate)),
	), nil
}

func Sampler(sampleRate float64) sdktrace.Sampler {
	switch {
	case sampleRate >= 1.0:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case sampleRate <= 0.0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))
	}
}
