package pipeline

import (
	"github.com/kbukum/onion/validation"
)

// Config describes a pipeline in configuration files.
//
//	pipeline:
//	  action: Handle
//	  injection: constructor
//	  layers:
//	    - name: request_id
//	    - name: retry
//	      parameters:
//	        max_attempts: 5
//
// Layers default to the inner position, so the list reads outermost first.
type Config struct {
	Action    string        `mapstructure:"action"`
	Injection Injection     `mapstructure:"injection" validate:"omitempty,oneof=constructor setter"`
	Setter    string        `mapstructure:"setter"`
	Layers    []LayerConfig `mapstructure:"layers" validate:"dive"`
}

// LayerConfig is one configured layer.
type LayerConfig struct {
	Name       string     `mapstructure:"name" validate:"required"`
	Position   string     `mapstructure:"position" validate:"omitempty,oneof=inner outer"`
	Parameters Parameters `mapstructure:"parameters"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Action == "" {
		c.Action = DefaultActionName
	}
	if c.Injection == "" {
		c.Injection = ConstructorInjection
	}
	if c.Injection == SetterInjection && c.Setter == "" {
		c.Setter = DefaultSetterName
	}
	for i := range c.Layers {
		if c.Layers[i].Position == "" {
			c.Layers[i].Position = PositionInner
		}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.New().
		Merge(validation.Validate(c)).
		Check(c.Injection != SetterInjection || c.Setter != "", "setter", "is required in setter mode").
		Error()
}

// Options converts the configuration into pipeline options.
func (c *Config) Options() []Option {
	opts := []Option{WithActionName(c.Action)}
	if c.Injection == SetterInjection {
		opts = append(opts, WithSetterInjection(c.Setter))
	}
	return opts
}

// NewFromConfig creates a Pipeline from cfg and registers its layers in
// order. opts are applied after the options derived from cfg.
func NewFromConfig(resolver Resolver, cfg Config, opts ...Option) (*Pipeline, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p, err := New(resolver, append(cfg.Options(), opts...)...)
	if err != nil {
		return nil, err
	}
	for _, layer := range cfg.Layers {
		p.AddLayer(layer.Name, layer.Parameters, layer.Position == PositionInner)
	}
	return p, nil
}
