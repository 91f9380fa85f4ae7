package pipeline

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kbukum/onion/errors"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// terminal returns the base continuation for target.
func (p *Pipeline) terminal(target any) (Next, error) {
	switch h := target.(type) {
	case nil:
		return nil, errors.InvalidAction("<nil>", p.opts.actionName)
	case Handler:
		if h != nil {
			return Next(h), nil
		}
	case Next:
		if h != nil {
			return h, nil
		}
	case func(context.Context, ...any) (any, error):
		if h != nil {
			return h, nil
		}
	}

	name := fmt.Sprintf("%T", target)
	fn := reflect.ValueOf(target)
	if fn.Kind() != reflect.Func {
		fn = fn.MethodByName(p.opts.actionName)
		if !fn.IsValid() {
			return nil, errors.InvalidAction(name, p.opts.actionName)
		}
		if h, ok := fn.Interface().(func(context.Context, ...any) (any, error)); ok {
			return h, nil
		}
		name += "." + p.opts.actionName
	}
	if fn.IsNil() {
		return nil, errors.InvalidAction(name, p.opts.actionName)
	}
	if err := checkResults(fn.Type()); err != nil {
		return nil, errors.InvalidAction(name, p.opts.actionName).WithCause(err)
	}

	return func(ctx context.Context, args ...any) (any, error) {
		return invoke(ctx, fn, name, args)
	}, nil
}

// checkResults accepts (), (T), (error) and (T, error).
func checkResults(t reflect.Type) error {
	switch t.NumOut() {
	case 0, 1:
		return nil
	case 2:
		if t.Out(1) != errorType {
			return fmt.Errorf("second result of %s must be error", t)
		}
		return nil
	default:
		return fmt.Errorf("%s returns too many results", t)
	}
}

// invoke calls fn with args mapped to its parameters by position. A leading
// context.Context parameter receives ctx. nil args become zero values.
func invoke(ctx context.Context, fn reflect.Value, name string, args []any) (any, error) {
	t := fn.Type()

	in := make([]reflect.Value, 0, t.NumIn())
	first := 0
	if t.NumIn() > 0 && t.In(0) == contextType {
		in = append(in, reflect.ValueOf(&ctx).Elem())
		first = 1
	}

	fixed := t.NumIn() - first
	if t.IsVariadic() {
		fixed--
	}
	if len(args) < fixed || (!t.IsVariadic() && len(args) > fixed) {
		return nil, errors.InvalidInput("args",
			fmt.Sprintf("%s expects %d arguments, got %d", name, fixed, len(args)))
	}

	for i, arg := range args {
		var pt reflect.Type
		if i >= fixed {
			pt = t.In(t.NumIn() - 1).Elem()
		} else {
			pt = t.In(first + i)
		}
		v, err := argValue(arg, pt)
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("args[%d]", i), err.Error())
		}
		in = append(in, v)
	}

	return results(fn.Call(in))
}

func argValue(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(arg)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", v.Type(), t)
	}
	return v, nil
}

func results(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errorType {
			err, _ := out[0].Interface().(error)
			return nil, err
		}
		return out[0].Interface(), nil
	default:
		err, _ := out[1].Interface().(error)
		return out[0].Interface(), err
	}
}
