// Package di provides the dependency container used to resolve middleware
// layers by name.
//
// Components are registered as constructors and resolved lazily (cached),
// eagerly, as singletons, or transiently (a new instance per resolve).
// Constructor parameters are injected by type: context.Context, Container,
// Args, or a parameter struct decoded from the resolve arguments.
//
// # Registration
//
//	c := di.NewContainer()
//	c.RegisterTransient("retry", func(p RetryParams) *Retry { return &Retry{p} },
//	    di.WithDefaultArgs(di.Args{"max_attempts": 3}))
//
// # Resolution
//
//	r, err := c.ResolveWith(ctx, "retry", map[string]any{"max_attempts": 5})
package di
