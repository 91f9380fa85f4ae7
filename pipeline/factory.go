package pipeline

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kbukum/onion/errors"
	"github.com/kbukum/onion/logger"
)

// create materializes the middleware registered as id for one execution.
func (p *Pipeline) create(ctx context.Context, id string, callTime, registration Parameters) (Middleware, error) {
	params := Merge(callTime, registration)

	var (
		instance any
		err      error
	)
	if p.opts.injection == SetterInjection {
		instance, err = p.resolver.ResolveWith(ctx, id, nil)
	} else {
		instance, err = p.resolver.ResolveWith(ctx, id, params)
	}
	if err != nil {
		return nil, err
	}

	if c := p.opts.capability; c != nil && !implements(instance, c) {
		return nil, errors.UnsupportedMiddleware(id, c.String())
	}

	if p.opts.injection == SetterInjection {
		if err := p.setParameters(ctx, id, instance, params); err != nil {
			return nil, err
		}
	}

	mw, ok := asMiddleware(instance)
	if !ok {
		return nil, errors.UnsupportedMiddleware(id, middlewareCapability)
	}

	p.log.Debug("middleware resolved", logger.Fields(
		logger.FieldLayer, id,
		"type", fmt.Sprintf("%T", instance),
	))
	return mw, nil
}

// setParameters calls the configured setter on instance with params.
func (p *Pipeline) setParameters(ctx context.Context, id string, instance any, params Parameters) error {
	if p.opts.setter == DefaultSetterName {
		if s, ok := instance.(ParameterSetter); ok {
			return s.SetParameters(params)
		}
	}

	if instance == nil {
		return errors.UnsupportedMiddleware(id, p.opts.setter)
	}
	method := reflect.ValueOf(instance).MethodByName(p.opts.setter)
	if !method.IsValid() {
		return errors.UnsupportedMiddleware(id, p.opts.setter)
	}
	if err := checkResults(method.Type()); err != nil {
		return errors.UnsupportedMiddleware(id, p.opts.setter).WithCause(err)
	}

	_, err := invoke(ctx, method, p.opts.setter, []any{params})
	return err
}

func implements(instance any, capability reflect.Type) bool {
	if instance == nil {
		return false
	}
	return reflect.TypeOf(instance).Implements(capability)
}
