package layers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/onion/di"
	"github.com/kbukum/onion/logger"
	"github.com/kbukum/onion/observability"
	"github.com/kbukum/onion/pipeline"
)

// LoggingParams configures the logging layer.
type LoggingParams struct {
	// Operation labels the log lines.
	Operation string `mapstructure:"operation" validate:"required"`
	// Level is the level successful calls are logged at.
	Level string `mapstructure:"level" validate:"oneof=debug info"`
}

// Logging logs every call that passes through it with its duration.
// Failures are logged at error level.
type Logging struct {
	params LoggingParams
	log    *logger.Logger
}

// newLogging creates a logging layer.
func newLogging(e *env, args di.Args) (*Logging, error) {
	l := &Logging{
		params: LoggingParams{Operation: "pipeline", Level: "debug"},
		log:    e.log,
	}
	return l, l.SetParameters(pipeline.Parameters(args))
}

// SetParameters decodes params over the current configuration.
func (l *Logging) SetParameters(params pipeline.Parameters) error {
	return pipeline.Decode(params, &l.params)
}

// Execute implements pipeline.Middleware.
func (l *Logging) Execute(ctx context.Context, args []any, next pipeline.Next) (any, error) {
	start := time.Now()
	out, err := next(ctx, args...)
	duration := time.Since(start)

	log := l.log.WithContext(ctx)
	fields := logger.Fields(
		logger.FieldOperation, l.params.Operation,
		logger.FieldDuration, duration.Milliseconds(),
	)
	switch {
	case err != nil:
		log.WithError(err).Error("pipeline execution failed", fields)
	case l.params.Level == "info":
		log.Info("pipeline execution completed", fields)
	default:
		log.Debug("pipeline execution completed", fields)
	}
	return out, err
}

// TracingParams configures the tracing layer.
type TracingParams struct {
	SpanName   string            `mapstructure:"span_name" validate:"required"`
	Attributes map[string]string `mapstructure:"attributes"`
}

// Tracing runs the inner chain in its own span.
type Tracing struct {
	params TracingParams
}

// NewTracing creates a tracing layer.
func NewTracing(args di.Args) (*Tracing, error) {
	l := &Tracing{params: TracingParams{SpanName: observability.SpanExecute}}
	return l, l.SetParameters(pipeline.Parameters(args))
}

// SetParameters decodes params over the current configuration.
func (l *Tracing) SetParameters(params pipeline.Parameters) error {
	return pipeline.Decode(params, &l.params)
}

// Execute implements pipeline.Middleware.
func (l *Tracing) Execute(ctx context.Context, args []any, next pipeline.Next) (any, error) {
	ctx, span := observability.StartSpan(ctx, l.params.SpanName)
	defer span.End()

	for k, v := range l.params.Attributes {
		span.SetAttributes(attribute.String(k, v))
	}
	if id, ok := logger.RequestIDFromContext(ctx); ok {
		span.SetAttributes(attribute.String(observability.AttrRequestID, id))
	}

	out, err := next(ctx, args...)
	span.SetAttributes(attribute.String(observability.AttrStatus, observability.Status(err)))
	observability.SetSpanError(ctx, err)
	return out, err
}

// MetricsParams configures the metrics layer.
type MetricsParams struct {
	Operation string `mapstructure:"operation" validate:"required"`
}

// Metrics records execution counts, durations and error codes.
type Metrics struct {
	params  MetricsParams
	metrics *observability.Metrics
}

// newMetrics creates a metrics layer.
func newMetrics(e *env, args di.Args) (*Metrics, error) {
	l := &Metrics{
		params:  MetricsParams{Operation: "pipeline"},
		metrics: e.metrics,
	}
	return l, l.SetParameters(pipeline.Parameters(args))
}

// SetParameters decodes params over the current configuration.
func (l *Metrics) SetParameters(params pipeline.Parameters) error {
	return pipeline.Decode(params, &l.params)
}

// Execute implements pipeline.Middleware.
func (l *Metrics) Execute(ctx context.Context, args []any, next pipeline.Next) (any, error) {
	if l.metrics == nil {
		return next(ctx, args...)
	}

	start := time.Now()
	l.metrics.RecordExecutionStart(ctx)
	out, err := next(ctx, args...)
	l.metrics.RecordExecution(ctx, l.params.Operation, observability.Status(err), time.Since(start))
	if err != nil {
		l.metrics.RecordError(ctx, observability.ErrorCode(err), l.params.Operation)
	}
	return out, err
}

// RequestIDParams configures the request id layer.
type RequestIDParams struct {
	// Override replaces a request id already present in the context.
	Override bool `mapstructure:"override"`
}

// RequestID makes sure the inner chain runs with a request id in its
// context (see logger.RequestIDFromContext).
type RequestID struct {
	params RequestIDParams
}

// NewRequestID creates a request id layer.
func NewRequestID(args di.Args) (*RequestID, error) {
	l := &RequestID{}
	return l, l.SetParameters(pipeline.Parameters(args))
}

// SetParameters decodes params over the current configuration.
func (l *RequestID) SetParameters(params pipeline.Parameters) error {
	return pipeline.Decode(params, &l.params)
}

// Execute implements pipeline.Middleware.
func (l *RequestID) Execute(ctx context.Context, args []any, next pipeline.Next) (any, error) {
	if _, ok := logger.RequestIDFromContext(ctx); !ok || l.params.Override {
		ctx = logger.ContextWithRequestID(ctx, uuid.NewString())
	}
	return next(ctx, args...)
}
