package main

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/logredact/logredact/internal/redaction"
	"github.com/logredact/logredact/internal/tracing"
)

type mockRedactor struct {
	transformFunc func(v any) (any, redaction.Stats, error)
}

func (m *mockRedactor) TransformWithStats(v any) (any, redaction.Stats, error) {
	if m.transformFunc != nil {
		return m.transformFunc(v)
	}
	return v, redaction.Stats{}, nil
}

type mockTracer struct {
	mu           sync.Mutex
	started      []string
	shutdownFunc func(ctx context.Context) error
}

func (m *mockTracer) StartDocument(ctx context.Context, source string, index int) (context.Context, trace.Span) {
	m.mu.Lock()
	m.started = append(m.started, source)
	m.mu.Unlock()
	return noop.NewTracerProvider().Tracer("test").Start(ctx, "document")
}

func (m *mockTracer) Shutdown(ctx context.Context) error {
	if m.shutdownFunc != nil {
		return m.shutdownFunc(ctx)
	}
	return nil
}

var _ documentRedactor = (*mockRedactor)(nil)
var _ documentRedactor = (*redaction.Processor)(nil)
var _ documentTracer = (*mockTracer)(nil)
var _ documentTracer = (*tracing.Manager)(nil)
