package layers

import (
	"context"
	"time"

	"github.com/kbukum/onion/di"
	"github.com/kbukum/onion/logger"
	"github.com/kbukum/onion/pipeline"
	"github.com/kbukum/onion/resilience"
)

// Retry re-runs the inner chain with exponential backoff. AppErrors that
// are not retryable stop it immediately.
type Retry struct {
	config resilience.RetryConfig
	log    *logger.Logger
}

// newRetry creates a retry layer.
func newRetry(e *env, args di.Args) (*Retry, error) {
	l := &Retry{config: resilience.DefaultRetryConfig(), log: e.log}
	return l, l.SetParameters(pipeline.Parameters(args))
}

// SetParameters decodes params (resilience.RetryConfig keys) over the
// current configuration.
func (l *Retry) SetParameters(params pipeline.Parameters) error {
	return pipeline.Decode(params, &l.config)
}

// Execute implements pipeline.Middleware.
func (l *Retry) Execute(ctx context.Context, args []any, next pipeline.Next) (any, error) {
	cfg := l.config
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		l.log.WithContext(ctx).Debug("retrying inner chain", logger.Fields(
			logger.FieldLayer, Names.Retry,
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
			"backoff_ms", backoff.Milliseconds(),
		))
	}
	return resilience.Retry(ctx, cfg, func(ctx context.Context) (any, error) {
		return next(ctx, args...)
	})
}

// RateLimitParams configures the rate limit layer.
type RateLimitParams struct {
	resilience.RateLimiterConfig `mapstructure:",squash"`
	// Wait blocks for a token instead of failing with RATE_LIMITED.
	Wait bool `mapstructure:"wait"`
}

// RateLimit admits calls through a token bucket shared by every execution
// that uses the same name. The bucket is sized by the first call that
// creates it.
type RateLimit struct {
	params RateLimitParams
	env    *env
}

// newRateLimit creates a rate limit layer.
func newRateLimit(e *env, args di.Args) (*RateLimit, error) {
	l := &RateLimit{
		params: RateLimitParams{RateLimiterConfig: resilience.DefaultRateLimiterConfig(Names.RateLimit)},
		env:    e,
	}
	return l, l.SetParameters(pipeline.Parameters(args))
}

// SetParameters decodes params over the current configuration.
func (l *RateLimit) SetParameters(params pipeline.Parameters) error {
	return pipeline.Decode(params, &l.params)
}

// Execute implements pipeline.Middleware.
func (l *RateLimit) Execute(ctx context.Context, args []any, next pipeline.Next) (any, error) {
	cfg := l.params.RateLimiterConfig
	limiter := l.env.limiters.GetOrCreate(cfg.Name, func() *resilience.RateLimiter {
		return resilience.NewRateLimiter(cfg)
	})

	if l.params.Wait {
		if err := limiter.Wait(ctx); err != nil {
			return nil, wrapResilienceError(cfg.Name, err)
		}
	} else if !limiter.Allow() {
		return nil, wrapResilienceError(cfg.Name, resilience.ErrRateLimited)
	}
	return next(ctx, args...)
}

// CircuitBreaker short-circuits with SERVICE_UNAVAILABLE while the inner
// chain keeps failing. Breakers are shared by name.
type CircuitBreaker struct {
	config resilience.CircuitBreakerConfig
	env    *env
}

// newCircuitBreaker creates a circuit breaker layer.
func newCircuitBreaker(e *env, args di.Args) (*CircuitBreaker, error) {
	l := &CircuitBreaker{
		config: resilience.DefaultCircuitBreakerConfig(Names.CircuitBreaker),
		env:    e,
	}
	return l, l.SetParameters(pipeline.Parameters(args))
}

// SetParameters decodes params over the current configuration.
func (l *CircuitBreaker) SetParameters(params pipeline.Parameters) error {
	return pipeline.Decode(params, &l.config)
}

// Execute implements pipeline.Middleware.
func (l *CircuitBreaker) Execute(ctx context.Context, args []any, next pipeline.Next) (any, error) {
	cfg := l.config
	cfg.OnStateChange = l.logStateChange
	cb := l.env.breakers.GetOrCreate(cfg.Name, func() *resilience.CircuitBreaker {
		return resilience.NewCircuitBreaker(cfg)
	})

	done, err := cb.Allow()
	if err != nil {
		return nil, wrapResilienceError(cfg.Name, err)
	}
	out, err := next(ctx, args...)
	done(err)
	return out, err
}

func (l *CircuitBreaker) logStateChange(name string, from, to resilience.State) {
	l.env.log.Warn("circuit breaker state changed", logger.Fields(
		logger.FieldLayer, Names.CircuitBreaker,
		"breaker", name,
		"from", from.String(),
		"to", to.String(),
	))
}

// Bulkhead bounds how many executions run the inner chain at once.
// Bulkheads are shared by name.
type Bulkhead struct {
	config resilience.BulkheadConfig
	env    *env
}

// newBulkhead creates a bulkhead layer.
func newBulkhead(e *env, args di.Args) (*Bulkhead, error) {
	l := &Bulkhead{
		config: resilience.DefaultBulkheadConfig(Names.Bulkhead),
		env:    e,
	}
	return l, l.SetParameters(pipeline.Parameters(args))
}

// SetParameters decodes params over the current configuration.
func (l *Bulkhead) SetParameters(params pipeline.Parameters) error {
	return pipeline.Decode(params, &l.config)
}

// Execute implements pipeline.Middleware.
func (l *Bulkhead) Execute(ctx context.Context, args []any, next pipeline.Next) (any, error) {
	cfg := l.config
	bh := l.env.bulkheads.GetOrCreate(cfg.Name, func() *resilience.Bulkhead {
		return resilience.NewBulkhead(cfg)
	})

	release, err := bh.Acquire(ctx)
	if err != nil {
		return nil, wrapResilienceError(cfg.Name, err)
	}
	defer release()
	return next(ctx, args...)
}
