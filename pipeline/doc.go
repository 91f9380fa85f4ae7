// Package pipeline wraps a terminal action in an ordered chain of
// interchangeable middleware layers (an "onion").
//
// Layers are registered by identifier and resolved through a Resolver on
// every execution, so each call gets fresh middleware instances configured
// with that call's parameters. A middleware can change the arguments, work
// before and after calling next, or return early without calling it.
//
// # Ordering
//
// The layer sequence is kept innermost first. AddInnerLayer puts a layer
// next to the action; AddOuterLayer puts it around everything else:
//
//	p.AddInnerLayer("a", nil)
//	p.AddInnerLayer("b", nil)
//	p.AddOuterLayer("c", nil)
//	// Layers() == [b a c]; c runs first, b runs last before the action.
//
// # Parameters
//
// Registration-time parameters are given to AddLayer; call-time parameters
// are given to Execute per identifier. Call-time values win key by key.
// Parameters reach the middleware either as resolver args (the default) or
// through a setter method (WithSetterInjection).
//
// # Usage
//
//	p, err := pipeline.New(container)
//	p.AddOuterLayer("logging", nil)
//	p.AddInnerLayer("retry", pipeline.Parameters{"max_attempts": 3})
//	out, err := p.Execute(ctx, handler, []any{req}, map[string]pipeline.Parameters{
//	    "retry": {"max_attempts": 5},
//	})
package pipeline
