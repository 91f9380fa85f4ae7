package main

import (
	"context"
	"errors"

	"github.com/kbukum/onion/config"
	"github.com/kbukum/onion/di"
	"github.com/kbukum/onion/layers"
	"github.com/kbukum/onion/logger"
	"github.com/kbukum/onion/observability"
	"github.com/kbukum/onion/pipeline"
)

// app is the wired runtime shared by every command.
type app struct {
	cfg       *Config
	log       *logger.Logger
	container di.Container
	pipeline  *pipeline.Pipeline
	shutdown  []func(context.Context) error
}

func newApp(ctx context.Context, flags *rootFlags) (*app, error) {
	var opts []config.LoaderOption
	if flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(flags.configFile))
	}
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(flags.envFile))
	}
	cfg, err := config.Load[Config](serviceName, opts...)
	if err != nil {
		return nil, err
	}
	if flags.otlpEndpoint != "" {
		cfg.Telemetry.Endpoint = flags.otlpEndpoint
	}

	log := logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)
	logger.RegisterComponents(log, "pipeline", "layers", "ginadapter", "config")

	a := &app{cfg: cfg, log: log, container: di.NewContainer()}
	metrics, err := a.initTelemetry(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	if err := layers.Register(a.container, layers.WithLogger(logger.Get("layers")), layers.WithMetrics(metrics)); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.pipeline, err = pipeline.NewFromConfig(a.container, cfg.Pipeline, pipeline.WithLogger(logger.Get("pipeline")))
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

// initTelemetry starts OTLP tracing and metrics when an endpoint is set.
// It returns nil metrics otherwise.
func (a *app) initTelemetry(ctx context.Context) (*observability.Metrics, error) {
	t := a.cfg.Telemetry
	if t.Endpoint == "" {
		return nil, nil
	}

	tp, err := observability.InitTracer(ctx, &observability.TracerConfig{
		ServiceName:    a.cfg.Name,
		ServiceVersion: a.cfg.Version,
		Environment:    a.cfg.Environment,
		Endpoint:       t.Endpoint,
		Insecure:       t.Insecure,
		SampleRate:     t.SampleRate,
	})
	if err != nil {
		return nil, err
	}
	a.shutdown = append(a.shutdown, tp.Shutdown)

	mp, err := observability.InitMeter(ctx, &observability.MeterConfig{
		ServiceName:    a.cfg.Name,
		ServiceVersion: a.cfg.Version,
		Environment:    a.cfg.Environment,
		Endpoint:       t.Endpoint,
		Insecure:       t.Insecure,
		Interval:       t.Interval,
	})
	if err != nil {
		return nil, err
	}
	a.shutdown = append(a.shutdown, mp.Shutdown)

	return observability.NewMetrics(observability.Meter(a.cfg.Name))
}

// Close flushes telemetry and closes the container.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, a.shutdown[i](ctx))
	}
	errs = append(errs, a.container.Close())
	return errors.Join(errs...)
}
