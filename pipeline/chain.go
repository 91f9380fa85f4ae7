package pipeline

import (
	"context"
	"slices"
)

// build composes the continuation for one execution. It starts from the
// terminal action and wraps it with each layer, innermost first, so the last
// layer wrapped is the first to run.
func (p *Pipeline) build(ctx context.Context, target any, callTime map[string]Parameters) (Next, error) {
	core, err := p.terminal(target)
	if err != nil {
		return nil, err
	}
	next := Next(func(ctx context.Context, args ...any) (any, error) {
		return core(ctx, slices.Clone(args)...)
	})

	layers, registered := p.snapshot()
	for _, id := range layers {
		mw, err := p.create(ctx, id, callTime[id], registered[id])
		if err != nil {
			return nil, err
		}
		next = wrap(mw, next)
	}
	return next, nil
}

// wrap hands mw its own copy of the arguments, so writes to args never reach
// the caller or a later call of next.
func wrap(mw Middleware, next Next) Next {
	return func(ctx context.Context, args ...any) (any, error) {
		return mw.Execute(ctx, slices.Clone(args), next)
	}
}
