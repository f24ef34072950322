package tracing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestSetupWithoutEndpointIsDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}

func TestResourceIdentifiesProcess(t *testing.T) {
	res, err := NewResource(context.Background(), Config{Role: "master", InstanceID: "10.0.0.1:60000"})
	require.NoError(t, err)

	values := map[string]string{}
	for _, kv := range res.Attributes() {
		values[string(kv.Key)] = kv.Value.Emit()
	}
	require.Equal(t, "regionmaster", values[string(semconv.ServiceNameKey)])
	require.Equal(t, "10.0.0.1:60000", values[string(semconv.ServiceInstanceIDKey)])
	require.Equal(t, "master", values[string(RoleKey)])
}

func TestNewSampler(t *testing.T) {
	require.Contains(t, NewSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
	require.Contains(t, NewSampler(0).Description(), "AlwaysOnSampler")
	require.Contains(t, NewSampler(1).Description(), "AlwaysOnSampler")
}

// keepSpans holds exported spans past provider shutdown.
type keepSpans struct {
	*tracetest.InMemoryExporter
}

func (keepSpans) Shutdown(context.Context) error { return nil }

func TestSetupWithExporterFlushesOnShutdown(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	exporter := tracetest.NewInMemoryExporter()
	shutdown, err := SetupWithExporter(context.Background(), Config{ServiceName: "catalog", Role: "catalog-server"},
		keepSpans{exporter})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "master.open")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "master.open", spans[0].Name)
	require.True(t, strings.Contains(spans[0].Resource.String(), "regionmaster.role=catalog-server"))
}
