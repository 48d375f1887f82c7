// Package telemetry wires OpenTelemetry tracing for audit runs.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogExporter writes every finished span as one structured log record.
type LogExporter struct {
	logger *slog.Logger
}

func NewLogExporter(logger *slog.Logger) *LogExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogExporter{logger: logger}
}

// ExportSpans logs each span with its timing, status and attributes.
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		attrs := []any{
			"trace_id", span.SpanContext().TraceID().String(),
			"span_id", span.SpanContext().SpanID().String(),
			"duration", span.EndTime().Sub(span.StartTime()),
		}
		if span.Parent().IsValid() {
			attrs = append(attrs, "parent_id", span.Parent().SpanID().String())
		}
		for _, kv := range span.Attributes() {
			attrs = append(attrs, string(kv.Key), kv.Value.Emit())
		}

		level := slog.LevelDebug
		if span.Status().Code == codes.Error {
			level = slog.LevelWarn
			attrs = append(attrs, "status", span.Status().Description)
		}
		e.logger.Log(ctx, level, "span "+span.Name(), attrs...)
	}
	return nil
}

func (e *LogExporter) Shutdown(ctx context.Context) error {
	return nil
}

// Setup installs a global tracer provider exporting to logger and returns
// the shutdown function that flushes it.
func Setup(logger *slog.Logger) func(context.Context) error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(NewLogExporter(logger))),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
