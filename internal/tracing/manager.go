package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/logredact/logredact/internal/config"
	"github.com/logredact/logredact/internal/logger"
	"github.com/logredact/logredact/internal/tracing/exporter"
)

const tracerName = "github.com/logredact/logredact"

// Manager hands out document spans. A disabled manager returns no-op spans.
type Manager struct {
	enabled bool
	tp      *sdktrace.TracerProvider
	tracer  trace.Tracer
}

func NewManager() (*Manager, error) {
	if !config.TracingEnabled {
		return disabledManager(), nil
	}

	tp, err := exporter.NewOTLPProvider(context.Background(), config.OTLPEndpoint, config.TracingSampleRate)
	if err != nil {
		return nil, err
	}

	logger.Info("Tracing enabled",
		zap.String("endpoint", config.OTLPEndpoint),
		zap.Float64("sample_rate", config.TracingSampleRate))
	return newManager(tp), nil
}

func newManager(tp *sdktrace.TracerProvider) *Manager {
	return &Manager{enabled: true, tp: tp, tracer: tp.Tracer(tracerName)}
}

func disabledManager() *Manager {
	return &Manager{tracer: noop.NewTracerProvider().Tracer(tracerName)}
}

func (m *Manager) Enabled() bool {
	return m.enabled
}

// StartDocument opens the span covering one input document.
func (m *Manager) StartDocument(ctx context.Context, source string, index int) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "logredact.document",
		trace.WithAttributes(
			attribute.String("logredact.source", source),
			attribute.Int("logredact.document.index", index),
		),
	)
}

// EndDocument closes a span opened by StartDocument with the transform outcome.
func EndDocument(span trace.Span, nodesVisited, limitEvents int, err error) {
	span.SetAttributes(
		attribute.Int("logredact.nodes_visited", nodesVisited),
		attribute.Int("logredact.limit_events", limitEvents),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (m *Manager) Shutdown(ctx context.Context) error {
	if !m.enabled || m.tp == nil {
		return nil
	}
	if err := m.tp.Shutdown(ctx); err != nil {
		logger.Warn("Failed to shutdown tracer provider", zap.Error(err))
		return err
	}
	return nil
}
