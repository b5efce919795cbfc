package main

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	serviceName         = "recordkit"
	instrumentationName = "github.com/coderi421/recordkit/cmd/recordkit"
)

// newTracerProvider 按配置创建 exporter，命令结束的时候调用 Shutdown 把 span 刷出去
func newTracerProvider(_ context.Context, cfg *config) (*sdktrace.TracerProvider, error) {
	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, err
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

func newExporter(cfg *config) (sdktrace.SpanExporter, error) {
	switch cfg.Tracing {
	case tracingJaeger:
		return jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.TracingEndpoint)))
	case tracingZipkin:
		return zipkin.New(cfg.TracingEndpoint)
	default:
		return nil, fmt.Errorf("config: unknown tracing exporter %q", cfg.Tracing)
	}
}
