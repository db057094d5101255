// Package tracing installs the process-wide OpenTelemetry tracer provider and
// the W3C trace context propagator.
package tracing

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names accepted by Init.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Init builds a tracer provider for serviceName, installs it and the
// propagator as otel globals and returns it so the caller can Shutdown.
// ExporterNone still records spans and propagates context; nothing is
// exported. ExporterStdout writes finished spans as JSON to out.
func Init(ctx context.Context, serviceName, exporter string, out io.Writer, log *slog.Logger) (*sdktrace.TracerProvider, error) {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	switch exporter {
	case "", ExporterNone:
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, errors.Wrap(err, "stdout trace exporter")
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	default:
		return nil, errors.Errorf("unknown trace exporter %q", exporter)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.InfoContext(ctx, "tracing_initialized", "service", serviceName, "exporter", exporter)
	return tp, nil
}
