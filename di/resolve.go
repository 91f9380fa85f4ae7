package di

import (
	"context"
	"fmt"
)

// MustResolve resolves a component with type safety, panics on error.
//
// Example:
//
//	log := di.MustResolve[*logger.Logger](c, "logger")
func MustResolve[T any](c Container, key string) T {
	instance, err := c.Resolve(key)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", key, err))
	}
	result, ok := instance.(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("di: component %s is %T, expected %T", key, instance, zero))
	}
	return result
}

// Resolve resolves a component with type safety, returns error on failure.
func Resolve[T any](c Container, key string) (T, error) {
	return ResolveWith[T](context.Background(), c, key, nil)
}

// ResolveWith resolves a component with named arguments and type safety.
//
// Example:
//
//	retry, err := di.ResolveWith[*layers.Retry](ctx, c, "retry", di.Args{"max_attempts": 5})
func ResolveWith[T any](ctx context.Context, c Container, key string, args Args) (T, error) {
	var zero T
	instance, err := c.ResolveWith(ctx, key, args)
	if err != nil {
		return zero, fmt.Errorf("di: failed to resolve %s: %w", key, err)
	}
	result, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("di: component %s is %T, expected %T", key, instance, zero)
	}
	return result, nil
}

// TryResolve resolves a component, returns zero value and false if not found.
// Use this when a dependency is optional.
func TryResolve[T any](c Container, key string) (T, bool) {
	result, err := Resolve[T](c, key)
	if err != nil {
		var zero T
		return zero, false
	}
	return result, true
}
