// Package telemetry configures OpenTelemetry tracing and metrics for a
// run. Both are optional: when endpoint is empty, Init installs no-op
// providers and returns a shutdown function that does nothing.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Shutdown flushes and tears down whatever providers Init installed.
type Shutdown func(context.Context) error

// Init configures the global tracer and meter providers. If endpoint is
// empty, telemetry is left at the otel package's no-op defaults.
func Init(ctx context.Context, service, endpoint string, log *slog.Logger) Shutdown {
	if log == nil {
		log = slog.Default()
	}
	if endpoint == "" {
		return func(context.Context) error { return nil }
	}

	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(service),
	))

	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}

	traceExp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithDialOption(dialOpts...))
	var tp *sdktrace.TracerProvider
	if err != nil {
		log.Warn("otel trace exporter init failed", "error", err)
	} else {
		tp = sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp), sdktrace.WithResource(res))
		otel.SetTracerProvider(tp)
	}

	metricExp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(endpoint), otlpmetricgrpc.WithDialOption(dialOpts...))
	var mp *sdkmetric.MeterProvider
	if err != nil {
		log.Warn("otel metric exporter init failed", "error", err)
	} else {
		mp = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(15*time.Second))),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(mp)
	}

	log.Info("telemetry initialized", "endpoint", endpoint)

	return func(shutdownCtx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(shutdownCtx, 3*time.Second)
		defer cancel()
		var firstErr error
		if tp != nil {
			if err := tp.Shutdown(shutdownCtx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if mp != nil {
			if err := mp.Shutdown(shutdownCtx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
}

// Meter returns the driver's named meter, installed or no-op.
func Meter() metric.Meter {
	return otel.Meter("crgp")
}

// WithSpan starts a span named name under the "crgp" tracer and returns
// the derived context plus an end function.
func WithSpan(ctx context.Context, name string) (context.Context, func()) {
	tr := otel.Tracer("crgp")
	ctx, span := tr.Start(ctx, name)
	return ctx, func() { span.End() }
}
