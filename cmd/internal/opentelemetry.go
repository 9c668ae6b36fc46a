package internal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/sanLimbu/todo-app/internal/envvar"
)

// OTExporter holds the OpenTelemetry providers registered globally.
type OTExporter struct {
	// Metrics serves the Prometheus metrics.
	Metrics http.Handler

	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

// NewOTExporter instantiates the OpenTelemetry exporters using configuration defined in environment variables.
func NewOTExporter(conf *envvar.Configuration, serviceName string) (*OTExporter, error) {
	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("prometheus.New: %w", err)
	}

	meterProvider := metric.NewMeterProvider(metric.WithReader(promExporter))

	global.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		return nil, fmt.Errorf("runtime.Start: %w", err)
	}

	jaegerEndpoint, err := conf.Get("JAEGER_ENDPOINT")
	if err != nil {
		return nil, fmt.Errorf("conf.Get JAEGER_ENDPOINT: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	}

	if jaegerEndpoint != "" {
		jaegerExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("jaeger.New: %w", err)
		}

		opts = append(opts, sdktrace.WithBatcher(jaegerExporter))
	}

	tracerProvider := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &OTExporter{
		Metrics:        promhttp.Handler(),
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
	}, nil
}

// Shutdown flushes pending spans and stops the providers.
func (o *OTExporter) Shutdown(ctx context.Context) error {
	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("tracerProvider.Shutdown: %w", err)
	}

	if err := o.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meterProvider.Shutdown: %w", err)
	}

	return nil
}
