package tracing

import (
	"context"
	"fmt"

	"github.com/jademcosta/syncbatcher/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/jademcosta/syncbatcher"

type ShutdownFunc func(context.Context) error

func NewNoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer(tracerName)
}

// NewTracer exports spans over OTLP/HTTP. The exporter endpoint is taken from
// the standard OTEL_EXPORTER_OTLP_* environment variables.
func NewTracer(ctx context.Context, conf config.TracingConfig) (trace.Tracer, ShutdownFunc, error) {
	if !conf.Enabled {
		return NewNoopTracer(), func(_ context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating trace exporter: %w", err)
	}

	res, err := buildResource(conf)
	if err != nil {
		return nil, nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tracerProvider.Tracer(tracerName), tracerProvider.Shutdown, nil
}

func buildResource(conf config.TracingConfig) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(semconv.ServiceName(conf.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("error building trace resource: %w", err)
	}

	return res, nil
}
