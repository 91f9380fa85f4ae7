package layers

import (
	"fmt"

	"github.com/kbukum/onion/di"
	"github.com/kbukum/onion/logger"
	"github.com/kbukum/onion/observability"
	"github.com/kbukum/onion/resilience"
)

// Names are the identifiers the built-in layers are registered under.
var Names = struct {
	Logging        string
	Tracing        string
	Metrics        string
	RequestID      string
	Retry          string
	RateLimit      string
	CircuitBreaker string
	Bulkhead       string
	Timeout        string
	Recover        string
}{
	Logging:        "logging",
	Tracing:        "tracing",
	Metrics:        "metrics",
	RequestID:      "request_id",
	Retry:          "retry",
	RateLimit:      "rate_limit",
	CircuitBreaker: "circuit_breaker",
	Bulkhead:       "bulkhead",
	Timeout:        "timeout",
	Recover:        "recover",
}

// Option configures the registered layers.
type Option func(*env)

// WithLogger sets the logger the layers write to.
func WithLogger(l *logger.Logger) Option {
	return func(e *env) {
		e.log = l
	}
}

// WithMetrics sets the instruments the metrics layer records to.
// Without it the metrics layer passes calls through unrecorded.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *env) {
		e.metrics = m
	}
}

// env is shared by every layer built from one Register call. Middleware is
// built per execution, so state that must outlive a call lives here.
type env struct {
	log       *logger.Logger
	metrics   *observability.Metrics
	limiters  *resilience.Registry[*resilience.RateLimiter]
	breakers  *resilience.Registry[*resilience.CircuitBreaker]
	bulkheads *resilience.Registry[*resilience.Bulkhead]
}

// Register registers every built-in layer in c as a transient component, so
// each pipeline execution gets a fresh instance built from its parameters.
func Register(c di.Container, opts ...Option) error {
	e := &env{
		limiters:  resilience.NewRegistry[*resilience.RateLimiter](),
		breakers:  resilience.NewRegistry[*resilience.CircuitBreaker](),
		bulkheads: resilience.NewRegistry[*resilience.Bulkhead](),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get("layers")
	}

	constructors := map[string]interface{}{
		Names.Logging:        func(args di.Args) (*Logging, error) { return newLogging(e, args) },
		Names.Tracing:        func(args di.Args) (*Tracing, error) { return NewTracing(args) },
		Names.Metrics:        func(args di.Args) (*Metrics, error) { return newMetrics(e, args) },
		Names.RequestID:      func(args di.Args) (*RequestID, error) { return NewRequestID(args) },
		Names.Retry:          func(args di.Args) (*Retry, error) { return newRetry(e, args) },
		Names.RateLimit:      func(args di.Args) (*RateLimit, error) { return newRateLimit(e, args) },
		Names.CircuitBreaker: func(args di.Args) (*CircuitBreaker, error) { return newCircuitBreaker(e, args) },
		Names.Bulkhead:       func(args di.Args) (*Bulkhead, error) { return newBulkhead(e, args) },
		Names.Timeout:        func(args di.Args) (*Timeout, error) { return NewTimeout(args) },
		Names.Recover:        func(args di.Args) (*Recover, error) { return newRecover(e, args) },
	}

	for name, ctor := range constructors {
		if err := c.RegisterTransient(name, ctor); err != nil {
			return fmt.Errorf("registering layer %s: %w", name, err)
		}
	}
	return nil
}
