// Package trace wraps OpenTelemetry tracing for a single CLI run.
package trace

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "insidergraph"

var (
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
	enabled        bool
)

// Config controls span export.
type Config struct {
	Enabled bool
	Version string
	// Writer receives the exported spans. Defaults to stderr.
	Writer io.Writer
}

// Init installs a stdout exporter when tracing is enabled.
func Init(cfg Config) error {
	enabled = cfg.Enabled
	if !enabled {
		return nil
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return err
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	tracer = otel.Tracer(serviceName)
	return nil
}

// Shutdown flushes pending spans.
func Shutdown(ctx context.Context) error {
	if tracerProvider != nil {
		err := tracerProvider.Shutdown(ctx)
		tracerProvider = nil
		tracer = nil
		enabled = false
		return err
	}
	return nil
}

// StartSpan starts a span, or returns the context's current span when
// tracing is disabled.
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !enabled || tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// Enabled reports whether spans are being exported.
func Enabled() bool {
	return enabled
}

// TraceID returns the trace id of the span in ctx, if any.
func TraceID(ctx context.Context) (string, bool) {
	if !enabled {
		return "", false
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", false
	}
	return sc.TraceID().String(), true
}
