// Package telemetry configures the OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	"github.com/polkiloo/paperdesk/internal/config"
)

// Module installs the global tracer provider and flushes it on stop.
var Module = fx.Options(
	fx.Provide(newProvider),
	fx.Invoke(registerLifecycle),
)

// NewTracerProvider builds a provider exporting to the Jaeger collector at
// endpoint. With no endpoint spans are still created, so trace ids reach
// the logs, but nothing is exported.
func NewTracerProvider(serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	}
	if endpoint != "" {
		exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
		if err != nil {
			return nil, fmt.Errorf("create jaeger exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

// Install makes tp the global provider and enables W3C trace context
// propagation.
func Install(tp *sdktrace.TracerProvider) {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func newProvider(cfg *config.Config, logger *slog.Logger) (*sdktrace.TracerProvider, error) {
	tp, err := NewTracerProvider(cfg.ServiceName, cfg.JaegerEndpoint)
	if err != nil {
		return nil, err
	}
	Install(tp)
	if cfg.JaegerEndpoint == "" {
		logger.Info("trace export disabled")
	} else {
		logger.Info("exporting traces", slog.String("endpoint", cfg.JaegerEndpoint))
	}
	return tp, nil
}

func registerLifecycle(lc fx.Lifecycle, tp *sdktrace.TracerProvider) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
}
