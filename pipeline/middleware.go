package pipeline

import "context"

// Next is the continuation a middleware delegates to. Calling it runs every
// inner layer and finally the terminal action.
type Next func(ctx context.Context, args ...any) (any, error)

// Handler is a terminal action that can be called without reflection.
type Handler func(ctx context.Context, args ...any) (any, error)

// Middleware is a single pipeline stage. It may inspect or replace args,
// work before and after calling next, or return without calling next.
type Middleware interface {
	Execute(ctx context.Context, args []any, next Next) (any, error)
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(ctx context.Context, args []any, next Next) (any, error)

// Execute calls f.
func (f MiddlewareFunc) Execute(ctx context.Context, args []any, next Next) (any, error) {
	return f(ctx, args, next)
}

// ParameterSetter is implemented by middleware that receives its parameters
// after construction through the default setter.
type ParameterSetter interface {
	SetParameters(params Parameters) error
}

// Resolver produces a middleware instance for an identifier. Named args take
// precedence over the resolver's own defaults for the same names.
type Resolver interface {
	ResolveWith(ctx context.Context, key string, args map[string]any) (any, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, key string, args map[string]any) (any, error)

// ResolveWith calls f.
func (f ResolverFunc) ResolveWith(ctx context.Context, key string, args map[string]any) (any, error) {
	return f(ctx, key, args)
}

func asMiddleware(instance any) (Middleware, bool) {
	switch mw := instance.(type) {
	case nil:
		return nil, false
	case Middleware:
		return mw, true
	case func(context.Context, []any, Next) (any, error):
		return MiddlewareFunc(mw), true
	default:
		return nil, false
	}
}
