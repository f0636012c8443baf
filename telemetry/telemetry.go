package telemetry

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"assistui/config"
)

const (
	ServiceName    = "assistui"
	ServiceVersion = "0.1.0"

	// MetricInterval is how often metrics are flushed to the metrics log.
	MetricInterval = 30 * time.Second
)

// Setup installs global tracer and meter providers that export to rotating
// files under <dataDir>/telemetry. When disabled the otel no-op providers
// stay in place and the returned shutdown func does nothing.
func Setup(ctx context.Context, dataDir string, enabled bool) (func(), error) {
	if !enabled {
		return func() {}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	dir := filepath.Join(dataDir, "telemetry")
	if err := config.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	traceFile := config.NewRotatingWriter(filepath.Join(dir, "traces.log"))
	traceExporter, err := stdouttrace.New(
		stdouttrace.WithWriter(traceFile),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		traceFile.Close()
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)

	metricsFile := config.NewRotatingWriter(filepath.Join(dir, "metrics.log"))
	metricExporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(metricsFile),
		stdoutmetric.WithPrettyPrint(),
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		traceFile.Close()
		metricsFile.Close()
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(MetricInterval)),
		),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	config.Logf("[Telemetry] Exporting traces and metrics to %s", dir)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			config.Logf("[Telemetry] Failed to shutdown tracer provider: %v", err)
		}
		if err := mp.Shutdown(ctx); err != nil {
			config.Logf("[Telemetry] Failed to shutdown meter provider: %v", err)
		}
		if err := traceFile.Close(); err != nil {
			config.Logf("[Telemetry] Failed to close trace file: %v", err)
		}
		if err := metricsFile.Close(); err != nil {
			config.Logf("[Telemetry] Failed to close metrics file: %v", err)
		}
	}
	return shutdown, nil
}
