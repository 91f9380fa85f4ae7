// Package resilience provides the fault-tolerance primitives behind the
// built-in pipeline layers.
//
//   - CircuitBreaker: fails fast while a dependency is unhealthy
//   - Retry: retries failed operations with exponential backoff (cenkalti/backoff)
//   - Bulkhead: limits concurrent calls (x/sync/semaphore)
//   - RateLimiter: token bucket rate limiting (x/time/rate)
//   - Registry: named instances shared across executions
//
// The primitives return sentinel errors (ErrCircuitOpen, ErrRateLimited,
// ErrBulkheadFull, ErrBulkheadTimeout); callers translate them to AppErrors.
package resilience
