// Package tracing installs the OpenTelemetry tracer provider used by the
// master and the catalog servers.
package tracing

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	defaultServiceName   = "regionmaster"
	defaultBatchTimeout  = 5 * time.Second
	defaultExportTimeout = 10 * time.Second

	// RoleKey tags spans with the process role (master, catalog-server).
	RoleKey = attribute.Key("regionmaster.role")
)

// Config describes tracing exporter configuration.
type Config struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	// Role and InstanceID identify the emitting process in the resource.
	Role          string
	InstanceID    string
	SampleRatio   float64
	BatchTimeout  time.Duration
	ExportTimeout time.Duration
	MaxQueueSize  int
}

// ShutdownFunc flushes pending spans and stops the provider.
type ShutdownFunc func(context.Context) error

// Setup exports spans over OTLP/gRPC. Tracing is disabled when no endpoint
// is configured.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	dialOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		dialOpts = append(dialOpts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}
	return SetupWithExporter(ctx, cfg, exporter)
}

// SetupWithExporter installs a batching provider in front of exporter.
func SetupWithExporter(ctx context.Context, cfg Config, exporter sdktrace.SpanExporter) (ShutdownFunc, error) {
	res, err := NewResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = defaultBatchTimeout
	}
	exportTimeout := cfg.ExportTimeout
	if exportTimeout <= 0 {
		exportTimeout = defaultExportTimeout
	}
	batchOpts := []sdktrace.BatchSpanProcessorOption{
		sdktrace.WithBatchTimeout(batchTimeout),
		sdktrace.WithExportTimeout(exportTimeout),
	}
	if cfg.MaxQueueSize > 0 {
		batchOpts = append(batchOpts, sdktrace.WithMaxQueueSize(cfg.MaxQueueSize))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(NewSampler(cfg.SampleRatio)),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, batchOpts...),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// NewResource describes the emitting process. The instance id falls back to
// the host name.
func NewResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	instance := cfg.InstanceID
	if instance == "" {
		instance, _ = os.Hostname()
	}
	attrs := []attribute.KeyValue{semconv.ServiceName(serviceName)}
	if instance != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(instance))
	}
	if cfg.Role != "" {
		attrs = append(attrs, RoleKey.String(cfg.Role))
	}
	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}
	return res, nil
}

// NewSampler samples every root span unless ratio is strictly between 0 and 1.
func NewSampler(ratio float64) sdktrace.Sampler {
	if ratio > 0 && ratio < 1 {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
	return sdktrace.ParentBased(sdktrace.AlwaysSample())
}
