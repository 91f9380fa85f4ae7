package pipeline

import (
	"context"
	"reflect"
	"slices"
	"sync"

	"github.com/kbukum/onion/errors"
	"github.com/kbukum/onion/logger"
)

// Pipeline wraps a terminal action in an ordered set of middleware layers.
// Layers are kept innermost first: index 0 runs closest to the action.
//
// Layers are registered once and executed many times. Execute works on a
// snapshot of the registry, so each execution owns its chain and instances.
type Pipeline struct {
	resolver Resolver
	opts     options
	log      *logger.Logger

	mu     sync.RWMutex
	layers []string
	params map[string]Parameters
}

// New creates a Pipeline that materializes layers through resolver.
func New(resolver Resolver, opts ...Option) (*Pipeline, error) {
	if resolver == nil {
		return nil, errors.InvalidInput("resolver", "must not be nil")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.actionName == "" {
		return nil, errors.InvalidInput("action", "must not be empty")
	}
	if o.injection == SetterInjection && o.setter == "" {
		return nil, errors.InvalidInput("setter", "must not be empty in setter mode")
	}
	if o.capability != nil && o.capability.Kind() != reflect.Interface {
		return nil, errors.InvalidInput("capability", o.capability.String()+" is not an interface type")
	}

	log := o.log
	if log == nil {
		log = logger.Get("pipeline")
	}

	return &Pipeline{
		resolver: resolver,
		opts:     o,
		log:      log,
		params:   make(map[string]Parameters),
	}, nil
}

// AddLayer registers id with its registration-time parameters, as the new
// innermost layer when inner is true, otherwise as the new outermost layer.
// Re-adding an id replaces its parameters and adds another entry.
// It returns the number of layers.
func (p *Pipeline) AddLayer(id string, params Parameters, inner bool) int {
	p.mu.Lock()
	p.params[id] = params.Clone()
	position := PositionOuter
	if inner {
		position = PositionInner
		p.layers = slices.Insert(p.layers, 0, id)
	} else {
		p.layers = append(p.layers, id)
	}
	depth := len(p.layers)
	p.mu.Unlock()

	p.log.Debug("layer added", logger.Fields(
		logger.FieldLayer, id,
		logger.FieldPosition, position,
		logger.FieldDepth, depth,
	))
	return depth
}

// AddInnerLayer registers id as the new innermost layer.
func (p *Pipeline) AddInnerLayer(id string, params Parameters) int {
	return p.AddLayer(id, params, true)
}

// AddOuterLayer registers id as the new outermost layer.
func (p *Pipeline) AddOuterLayer(id string, params Parameters) int {
	return p.AddLayer(id, params, false)
}

// Layers returns the layer identifiers, innermost first.
func (p *Pipeline) Layers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.layers)
}

// Execute runs target behind every registered layer and returns what the
// outermost layer returns.
//
// target is a Handler, any other function, or an object whose action method
// (Handle unless configured) is invoked. args are passed to the outermost
// layer. params holds call-time parameters per layer identifier; they take
// precedence over registration-time parameters. Every layer and the target
// receive their own copy of the arguments.
//
// All middleware is resolved before any of it runs: a resolver error or an
// unsupported middleware aborts the call without side effects.
func (p *Pipeline) Execute(ctx context.Context, target any, args []any, params map[string]Parameters) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	next, err := p.build(ctx, target, params)
	if err != nil {
		return nil, err
	}
	return next(ctx, args...)
}

func (p *Pipeline) snapshot() ([]string, map[string]Parameters) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	registered := make(map[string]Parameters, len(p.params))
	for id, params := range p.params {
		registered[id] = params
	}
	return slices.Clone(p.layers), registered
}
