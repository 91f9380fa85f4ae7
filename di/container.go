package di

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/onion/logger"
)

// RegistrationMode determines how a component should be resolved
type RegistrationMode int

const (
	Eager     RegistrationMode = iota // Initialize immediately on registration
	Lazy                              // Initialize on first resolve, then cache
	Singleton                         // Pre-created instance
	Transient                         // New instance on every resolve
)

// String returns the mode name.
func (m RegistrationMode) String() string {
	switch m {
	case Eager:
		return "eager"
	case Lazy:
		return "lazy"
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}

// ErrNotRegistered is returned (wrapped with the key) for unknown components.
var ErrNotRegistered = errors.New("component not registered")

// Args are named resolution arguments. They are injected into constructors
// that accept Args, map[string]any, or a parameter struct.
type Args map[string]any

// Container defines the interface for a dependency injection container
type Container interface {
	Register(key string, constructor interface{}, options ...Option) error
	RegisterLazy(key string, constructor interface{}, options ...Option) error
	RegisterEager(key string, constructor interface{}, options ...Option) error
	RegisterTransient(key string, constructor interface{}, options ...Option) error
	RegisterSingleton(key string, instance interface{}) error

	Resolve(key string) (interface{}, error)
	// ResolveWith resolves key passing named arguments to its constructor.
	// Arguments override the registration's default arguments key by key.
	ResolveWith(ctx context.Context, key string, args map[string]any) (interface{}, error)

	Registrations() []RegistrationInfo
	Close() error
}

// RegistrationInfo describes a registered component for introspection.
type RegistrationInfo struct {
	Key         string
	Mode        RegistrationMode
	Initialized bool
}

// Option configures a registration.
type Option func(*registration)

// WithDefaultArgs sets the arguments used when a resolve call does not
// supply a value for the same name.
func WithDefaultArgs(args Args) Option {
	return func(reg *registration) {
		reg.defaults = maps.Clone(args)
	}
}

// UnifiedContainer is the default Container implementation.
type UnifiedContainer struct {
	components map[string]*registration
	singletons map[string]interface{}
	mutex      sync.RWMutex
}

type registration struct {
	key         string
	constructor interface{}
	mode        RegistrationMode
	defaults    Args
	instance    interface{}
	initialized bool
	mutex       sync.Mutex
}

var (
	contextType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	containerType = reflect.TypeOf((*Container)(nil)).Elem()
	argsType      = reflect.TypeOf(Args(nil))
	mapType       = reflect.TypeOf(map[string]any(nil))
)

// NewContainer creates an empty container.
func NewContainer() Container {
	return &UnifiedContainer{
		components: make(map[string]*registration),
		singletons: make(map[string]interface{}),
	}
}

// Register registers a component with lazy loading (most common case).
func (c *UnifiedContainer) Register(key string, constructor interface{}, options ...Option) error {
	return c.RegisterLazy(key, constructor, options...)
}

// RegisterLazy registers a component built on first resolve and cached.
func (c *UnifiedContainer) RegisterLazy(key string, constructor interface{}, options ...Option) error {
	return c.add(key, constructor, Lazy, options)
}

// RegisterTransient registers a component built anew on every resolve.
func (c *UnifiedContainer) RegisterTransient(key string, constructor interface{}, options ...Option) error {
	return c.add(key, constructor, Transient, options)
}

// RegisterEager registers a component and builds it immediately.
func (c *UnifiedContainer) RegisterEager(key string, constructor interface{}, options ...Option) error {
	reg, err := c.newRegistration(key, constructor, Eager, options)
	if err != nil {
		return err
	}

	instance, err := c.callConstructor(context.Background(), constructor, reg.defaults)
	if err != nil {
		return fmt.Errorf("failed to initialize eager component '%s': %w", key, err)
	}
	reg.instance = instance
	reg.initialized = true

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.components[key] = reg
	return nil
}

// RegisterSingleton registers a pre-created instance.
func (c *UnifiedContainer) RegisterSingleton(key string, instance interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.singletons[key] = instance
	return nil
}

func (c *UnifiedContainer) add(key string, constructor interface{}, mode RegistrationMode, options []Option) error {
	reg, err := c.newRegistration(key, constructor, mode, options)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.components[key] = reg
	return nil
}

func (c *UnifiedContainer) newRegistration(key string, constructor interface{}, mode RegistrationMode, options []Option) (*registration, error) {
	if reflect.ValueOf(constructor).Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor for '%s' must be a function, got %T", key, constructor)
	}
	reg := &registration{key: key, constructor: constructor, mode: mode}
	for _, opt := range options {
		opt(reg)
	}
	return reg, nil
}

// Resolve gets a component instance using its default arguments.
func (c *UnifiedContainer) Resolve(key string) (interface{}, error) {
	return c.ResolveWith(context.Background(), key, nil)
}

// ResolveWith gets a component instance, passing args to its constructor.
// Singletons and eager components ignore args. A lazy component resolved
// with args is built fresh and not cached.
func (c *UnifiedContainer) ResolveWith(ctx context.Context, key string, args map[string]any) (interface{}, error) {
	c.mutex.RLock()
	if singleton, exists := c.singletons[key]; exists {
		c.mutex.RUnlock()
		return singleton, nil
	}
	reg, exists := c.components[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}

	switch reg.mode {
	case Eager:
		return reg.instance, nil
	case Transient:
		return c.build(ctx, reg, args)
	case Lazy:
		if len(args) > 0 {
			return c.build(ctx, reg, args)
		}
		return c.resolveLazy(ctx, reg)
	default:
		return nil, fmt.Errorf("unknown registration mode for component: %s", reg.key)
	}
}

func (c *UnifiedContainer) resolveLazy(ctx context.Context, reg *registration) (interface{}, error) {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()

	if reg.initialized {
		return reg.instance, nil
	}

	instance, err := c.build(ctx, reg, nil)
	if err != nil {
		logger.Debug("lazy component initialization failed", logger.Fields(
			logger.FieldComponent, reg.key,
			logger.FieldError, err.Error(),
		))
		return nil, err
	}

	reg.instance = instance
	reg.initialized = true
	logger.Debug("lazy component initialized", logger.Fields(logger.FieldComponent, reg.key))
	return instance, nil
}

func (c *UnifiedContainer) build(ctx context.Context, reg *registration, args map[string]any) (interface{}, error) {
	merged := make(Args, len(reg.defaults)+len(args))
	maps.Copy(merged, reg.defaults)
	maps.Copy(merged, args)

	instance, err := c.callConstructor(ctx, reg.constructor, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to build component '%s': %w", reg.key, err)
	}
	return instance, nil
}

// callConstructor invokes constructor, injecting each parameter by type:
// context.Context, Container, Args (or map[string]any), or a struct / struct
// pointer decoded from args.
func (c *UnifiedContainer) callConstructor(ctx context.Context, constructor interface{}, args Args) (interface{}, error) {
	fn := reflect.ValueOf(constructor)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function")
	}

	fnType := fn.Type()
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("variadic constructors are not supported")
	}
	if args == nil {
		args = Args{}
	}

	in := make([]reflect.Value, fnType.NumIn())
	for i := range in {
		v, err := c.argument(ctx, fnType.In(i), args)
		if err != nil {
			return nil, fmt.Errorf("constructor parameter %d: %w", i, err)
		}
		in[i] = v
	}

	return handleConstructorResults(fn.Call(in))
}

func (c *UnifiedContainer) argument(ctx context.Context, t reflect.Type, args Args) (reflect.Value, error) {
	switch {
	case t == contextType:
		if ctx == nil {
			ctx = context.Background()
		}
		return reflect.ValueOf(&ctx).Elem(), nil
	case t == containerType:
		return reflect.ValueOf(c), nil
	case t == argsType:
		return reflect.ValueOf(maps.Clone(args)), nil
	case t == mapType:
		return reflect.ValueOf(map[string]any(maps.Clone(args))), nil
	case t.Kind() == reflect.Struct:
		ptr := reflect.New(t)
		if err := DecodeArgs(args, ptr.Interface()); err != nil {
			return reflect.Value{}, err
		}
		return ptr.Elem(), nil
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		ptr := reflect.New(t.Elem())
		if err := DecodeArgs(args, ptr.Interface()); err != nil {
			return reflect.Value{}, err
		}
		return ptr, nil
	default:
		return reflect.Value{}, fmt.Errorf("cannot inject %s", t)
	}
}

func handleConstructorResults(results []reflect.Value) (interface{}, error) {
	switch len(results) {
	case 1:
		return results[0].Interface(), nil
	case 2:
		if err, _ := results[1].Interface().(error); err != nil {
			return nil, err
		}
		return results[0].Interface(), nil
	default:
		return nil, fmt.Errorf("constructor must return either (instance) or (instance, error)")
	}
}

// DecodeArgs decodes named arguments into out, a pointer to a struct.
// Field names match mapstructure tags or, failing that, the field name
// case-insensitively; strings are weakly converted (e.g. "250ms" to a
// time.Duration).
func DecodeArgs(args map[string]any, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

// Registrations returns info about all registered components, sorted by key.
func (c *UnifiedContainer) Registrations() []RegistrationInfo {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make([]RegistrationInfo, 0, len(c.components)+len(c.singletons))
	for key, reg := range c.components {
		reg.mutex.Lock()
		result = append(result, RegistrationInfo{
			Key:         key,
			Mode:        reg.mode,
			Initialized: reg.initialized,
		})
		reg.mutex.Unlock()
	}
	for key := range c.singletons {
		result = append(result, RegistrationInfo{Key: key, Mode: Singleton, Initialized: true})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// Close closes every cached instance and singleton implementing
// interface{ Close() error }. Transient instances belong to their callers.
func (c *UnifiedContainer) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var errs []error
	for _, reg := range c.components {
		if reg.initialized && reg.instance != nil {
			if closer, ok := reg.instance.(interface{ Close() error }); ok {
				errs = append(errs, closer.Close())
			}
		}
	}
	for _, singleton := range c.singletons {
		if closer, ok := singleton.(interface{ Close() error }); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}
