package pipeline

import (
	"reflect"

	"github.com/kbukum/onion/logger"
)

// Injection selects how parameters reach a middleware instance.
type Injection string

const (
	// ConstructorInjection passes parameters to the resolver as named args.
	ConstructorInjection Injection = "constructor"
	// SetterInjection resolves with no args and calls a setter method.
	SetterInjection Injection = "setter"
)

// Layer positions.
const (
	PositionInner = "inner"
	PositionOuter = "outer"
)

const (
	// DefaultActionName is the method invoked on object terminal actions.
	DefaultActionName = "Handle"
	// DefaultSetterName is the setter used by WithSetterInjection("SetParameters").
	DefaultSetterName = "SetParameters"
)

type options struct {
	actionName string
	capability reflect.Type
	injection  Injection
	setter     string
	log        *logger.Logger
}

func defaultOptions() options {
	return options{
		actionName: DefaultActionName,
		injection:  ConstructorInjection,
	}
}

// Option configures a Pipeline.
type Option func(*options)

// WithActionName sets the method invoked when the terminal action is an
// object rather than a function.
func WithActionName(name string) Option {
	return func(o *options) {
		o.actionName = name
	}
}

// WithRequiredCapability makes every middleware instance implement the
// interface type t; instances that don't fail with UNSUPPORTED_MIDDLEWARE.
func WithRequiredCapability(t reflect.Type) Option {
	return func(o *options) {
		o.capability = t
	}
}

// Require is WithRequiredCapability for the interface type T.
//
//	p, err := pipeline.New(c, pipeline.Require[AuditedMiddleware]())
func Require[T any]() Option {
	return WithRequiredCapability(reflect.TypeFor[T]())
}

// WithSetterInjection switches to setter mode: middleware is resolved with no
// args and the named method is called once with the merged parameters.
func WithSetterInjection(setter string) Option {
	return func(o *options) {
		o.injection = SetterInjection
		o.setter = setter
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}
