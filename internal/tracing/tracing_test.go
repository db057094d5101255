package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func restoreGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), "svc", "jaeger", &bytes.Buffer{}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jaeger")
}

func TestInitInstallsPropagator(t *testing.T) {
	restoreGlobals(t)
	tp, err := Init(context.Background(), "svc", ExporterNone, &bytes.Buffer{}, discardLogger())
	require.NoError(t, err)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	require.True(t, span.SpanContext().IsValid())

	h := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(h))
	assert.Contains(t, h.Get("traceparent"), span.SpanContext().TraceID().String())

	back := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(h))
	assert.Equal(t, span.SpanContext().TraceID(), trace.SpanContextFromContext(back).TraceID())
}

func TestInitStdoutExportsOnShutdown(t *testing.T) {
	restoreGlobals(t)
	var out bytes.Buffer
	tp, err := Init(context.Background(), "vending-test", ExporterStdout, &out, discardLogger())
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "purchase")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, out.String(), `"Name":"purchase"`)
	assert.Contains(t, out.String(), "vending-test")
}
