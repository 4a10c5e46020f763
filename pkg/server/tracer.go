package server

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// NewTracer builds a trace.Tracer for the server's request loop, grounded
// on pkg/telemetry.NewTracer but trimmed to the two exporters that have a
// real dependency in this module: "stdout" and "none". The server has no
// use for OTLP export, so that branch is not carried over.
func NewTracer(ctx context.Context, exporterKind, serviceVersion string) (trace.Tracer, func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("kconfig-server"),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	var exporter sdktrace.SpanExporter
	switch exporterKind {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, err
		}
	case "none", "":
		provider := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
		otel.SetTracerProvider(provider)
		return provider.Tracer("kconfig-server"), provider.Shutdown, nil
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	return provider.Tracer("kconfig-server"), provider.Shutdown, nil
}

func spanAttrs(req requestSummary) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("kconfig.request.version", req.version),
		attribute.Int("kconfig.request.set_count", req.setCount),
		attribute.Bool("kconfig.request.load", req.hasLoad),
		attribute.Bool("kconfig.request.save", req.hasSave),
		attribute.Int("kconfig.request.reset_count", req.resetCount),
	}
}

type requestSummary struct {
	version    int
	setCount   int
	hasLoad    bool
	hasSave    bool
	resetCount int
}
