// Package tracing wraps OpenTelemetry so the render path can open spans
// without importing the SDK. Spans are exported as JSON lines through the
// stdout exporter, to a file when one is configured.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentation = "github.com/cwbudde/algo-host"

// Tracer starts spans. The zero value is not usable; use New, NewFile or
// NewNop.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	closer   io.Closer
}

// New exports spans to w.
func New(serviceName, serviceVersion string, w io.Writer) (*Tracer, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("create span exporter: %w", err)
	}
	return NewWithExporter(serviceName, serviceVersion, exporter)
}

// NewWithExporter exports spans through exporter synchronously.
func NewWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) (*Tracer, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	return &Tracer{tracer: tp.Tracer(instrumentation), provider: tp}, nil
}

// NewFile exports spans to a file created at path. An empty path returns a
// no-op tracer.
func NewFile(serviceName, serviceVersion, path string) (*Tracer, error) {
	if path == "" {
		return NewNop(), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trace file: %w", err)
	}
	t, err := New(serviceName, serviceVersion, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	t.closer = f
	return t, nil
}

// NewNop returns a tracer whose spans record nothing.
func NewNop() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer(instrumentation)}
}

// OrNop returns t, or a no-op tracer when t is nil.
func OrNop(t *Tracer) *Tracer {
	if t == nil {
		return NewNop()
	}
	return t
}

// Shutdown flushes pending spans and closes the trace file.
func (t *Tracer) Shutdown(ctx context.Context) error {
	var err error
	if t.provider != nil {
		err = t.provider.Shutdown(ctx)
	}
	if t.closer != nil {
		if cerr := t.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Span is a started span.
type Span struct {
	span trace.Span
}

// StartSpan starts a child span of whatever span ctx carries.
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	return ctx, &Span{span: span}
}

// WithAttributes attaches attrs to the span.
func (s *Span) WithAttributes(attrs map[string]string) *Span {
	if s == nil || len(attrs) == 0 {
		return s
	}
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	s.span.SetAttributes(kvs...)
	return s
}

// SetInt attaches an integer attribute.
func (s *Span) SetInt(key string, v int) {
	if s == nil {
		return
	}
	s.span.SetAttributes(attribute.Int(key, v))
}

// EndSpan records err as the span status and ends it.
func EndSpan(s *Span, err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
