package pipeline_test

import (
	"context"
	"slices"
	"testing"

	"github.com/kbukum/onion/errors"
	"github.com/kbukum/onion/pipeline"
)

func TestConfigApplyDefaults(t *testing.T) {
	cfg := pipeline.Config{
		Injection: pipeline.SetterInjection,
		Layers:    []pipeline.LayerConfig{{Name: "a"}, {Name: "b", Position: pipeline.PositionOuter}},
	}
	cfg.ApplyDefaults()

	if cfg.Action != pipeline.DefaultActionName {
		t.Errorf("Action = %q", cfg.Action)
	}
	if cfg.Setter != pipeline.DefaultSetterName {
		t.Errorf("Setter = %q", cfg.Setter)
	}
	if cfg.Layers[0].Position != pipeline.PositionInner || cfg.Layers[1].Position != pipeline.PositionOuter {
		t.Errorf("positions = %q, %q", cfg.Layers[0].Position, cfg.Layers[1].Position)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     pipeline.Config
		wantErr bool
	}{
		{"valid", pipeline.Config{Layers: []pipeline.LayerConfig{{Name: "a"}}}, false},
		{"bad injection", pipeline.Config{Injection: "field"}, true},
		{"missing layer name", pipeline.Config{Layers: []pipeline.LayerConfig{{}}}, true},
		{"bad position", pipeline.Config{Layers: []pipeline.LayerConfig{{Name: "a", Position: "middle"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	rec := &recorder{}
	cfg := pipeline.Config{
		Layers: []pipeline.LayerConfig{
			{Name: "outermost"},
			{Name: "middle", Parameters: pipeline.Parameters{"x": 1}},
			{Name: "innermost"},
			{Name: "wrapper", Position: pipeline.PositionOuter},
		},
	}

	p, err := pipeline.NewFromConfig(traceResolver(rec), cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}

	want := []string{"innermost", "middle", "outermost", "wrapper"}
	if got := p.Layers(); !slices.Equal(got, want) {
		t.Fatalf("Layers() = %v, want %v", got, want)
	}

	if _, err := p.Execute(context.Background(), coreHandler(rec, nil), nil, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rec.created[1].params["x"] != 1 {
		t.Errorf("middle params = %v", rec.created[1].params)
	}
}

func TestNewFromConfigInvalid(t *testing.T) {
	_, err := pipeline.NewFromConfig(traceResolver(&recorder{}), pipeline.Config{
		Layers: []pipeline.LayerConfig{{Position: "inner"}},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}
