package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/onion/errors"
	"github.com/kbukum/onion/logger"
)

// Execution statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string `mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) *MeterConfig {
	return &MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded around pipeline executions.
type Metrics struct {
	executionTotal    metric.Int64Counter
	executionDuration metric.Float64Histogram
	executionActive   metric.Int64UpDownCounter
	layerTotal        metric.Int64Counter
	layerDuration     metric.Float64Histogram
	errorTotal        metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	executionTotal, err := meter.Int64Counter("pipeline.execution.total",
		metric.WithDescription("Total number of pipeline executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.execution.total counter: %w", err)
	}

	executionDuration, err := meter.Float64Histogram("pipeline.execution.duration",
		metric.WithDescription("Duration of pipeline executions in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.execution.duration histogram: %w", err)
	}

	executionActive, err := meter.Int64UpDownCounter("pipeline.execution.active",
		metric.WithDescription("Number of executions currently in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.execution.active gauge: %w", err)
	}

	layerTotal, err := meter.Int64Counter("pipeline.layer.total",
		metric.WithDescription("Total number of layer invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.layer.total counter: %w", err)
	}

	layerDuration, err := meter.Float64Histogram("pipeline.layer.duration",
		metric.WithDescription("Time spent in a layer and everything inside it, in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.layer.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("pipeline.error.total",
		metric.WithDescription("Total errors by code and layer"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.error.total counter: %w", err)
	}

	return &Metrics{
		executionTotal:    executionTotal,
		executionDuration: executionDuration,
		executionActive:   executionActive,
		layerTotal:        layerTotal,
		layerDuration:     layerDuration,
		errorTotal:        errorTotal,
	}, nil
}

// RecordExecutionStart increments the in-flight execution count.
func (m *Metrics) RecordExecutionStart(ctx context.Context) {
	m.executionActive.Add(ctx, 1)
}

// RecordExecution decrements in-flight executions and records a completed one.
func (m *Metrics) RecordExecution(ctx context.Context, operation, status string, duration time.Duration) {
	m.executionActive.Add(ctx, -1)
	m.executionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.executionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordLayer records one invocation of a layer.
func (m *Metrics) RecordLayer(ctx context.Context, layer, status string, duration time.Duration) {
	m.layerTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("layer", layer),
		attribute.String("status", status),
	))
	m.layerDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("layer", layer),
	))
}

// RecordError records an error by code and layer.
func (m *Metrics) RecordError(ctx context.Context, code, layer string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("layer", layer),
	))
}

// Status maps an execution error to a status attribute value.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// ErrorCode returns the AppError code of err, or INTERNAL_ERROR for others.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	return string(errors.Wrap(err).Code)
}
