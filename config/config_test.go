package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kbukum/onion/errors"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Pipeline      struct {
		Action string `mapstructure:"action"`
	} `mapstructure:"pipeline"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != EnvDevelopment {
			t.Errorf("Environment = %q, want development", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
		}
	})

	t.Run("production keeps debug off", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: EnvProduction}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: EnvDevelopment}, false},
		{"valid staging", ServiceConfig{Name: "svc", Environment: EnvStaging}, false},
		{"missing name", ServiceConfig{Environment: EnvProduction}, true},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
					t.Fatalf("err = %v, want INVALID_INPUT", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "onion.yml", `
name: onion
environment: staging
pipeline:
  action: Process
`)

	cfg, err := Load[testConfig]("onion", WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "onion" || cfg.Environment != EnvStaging {
		t.Errorf("service = %+v", cfg.ServiceConfig)
	}
	if cfg.Pipeline.Action != "Process" {
		t.Errorf("Pipeline.Action = %q, want Process", cfg.Pipeline.Action)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "onion.yml", "name: onion\npipeline:\n  action: Process\n")
	t.Setenv("PIPELINE_ACTION", "Run")

	cfg, err := Load[testConfig]("onion", WithConfigFile(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.Action != "Run" {
		t.Errorf("Pipeline.Action = %q, want Run", cfg.Pipeline.Action)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "onion.yml", "name: onion\n")
	envPath := writeFile(t, dir, ".env", "ONION_TEST_VERSION=2.1.0\n")
	t.Setenv("ONION_TEST_VERSION", "")
	os.Unsetenv("ONION_TEST_VERSION")

	var cfg struct {
		Name string `mapstructure:"name"`
		Onion struct {
			Test struct {
				Version string `mapstructure:"version"`
			} `mapstructure:"test"`
		} `mapstructure:"onion"`
	}
	if err := LoadConfig("onion", &cfg, WithConfigFile(cfgPath), WithEnvFile(envPath)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Onion.Test.Version != "2.1.0" {
		t.Errorf("version = %q, want 2.1.0", cfg.Onion.Test.Version)
	}
}

func TestLoadValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "onion.yml", "environment: qa\n")

	_, err := Load[testConfig]("onion", WithConfigFile(path))
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("onion", &cfg, WithConfigFile(filepath.Join(t.TempDir(), "missing.yml")))
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "onion.yml", "name: [unterminated\n")
	var cfg testConfig
	err := LoadConfig("onion", &cfg, WithConfigFile(path))
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(string) error { return nil }

func TestFileResolver(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		filepath.Join("config", "onion.yml"): true,
		"config.yml":                         true,
		".env":                               true,
	}}
	r := &FileResolver{FileSystem: fs}

	files := r.Resolve("onion", LoaderConfig{})
	if files.ConfigFile != filepath.Join("config", "onion.yml") {
		t.Errorf("ConfigFile = %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("EnvFile = %q", files.EnvFile)
	}

	explicit := r.Resolve("onion", LoaderConfig{ConfigFile: "x.yml", EnvFile: "x.env"})
	if explicit.ConfigFile != "x.yml" || explicit.EnvFile != "x.env" {
		t.Errorf("explicit = %+v", explicit)
	}

	none := (&FileResolver{FileSystem: &mockFS{}}).Resolve("onion", LoaderConfig{})
	if none.ConfigFile != "" || none.EnvFile != "" {
		t.Errorf("expected no files, got %+v", none)
	}
}

func TestLoaderOptions(t *testing.T) {
	fs := &mockFS{}
	var lc LoaderConfig
	for _, opt := range []LoaderOption{WithFileSystem(fs), WithConfigFile("a.yml"), WithEnvFile("b.env")} {
		opt(&lc)
	}
	if lc.FileSystem != fs || lc.ConfigFile != "a.yml" || lc.EnvFile != "b.env" {
		t.Errorf("LoaderConfig = %+v", lc)
	}
}

func TestKeyVariants(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"DEBUG", []string{"debug"}},
		{"OTLP_ENDPOINT", []string{"otlp_endpoint", "otlp.endpoint"}},
		{"TRACING_SAMPLE_RATIO", []string{"tracing.sample.ratio", "tracing.sample_ratio", "tracing_sample.ratio"}},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got := keyVariants(tc.key)
			for _, w := range tc.want {
				if !slices.Contains(got, w) {
					t.Errorf("keyVariants(%q) = %v, missing %q", tc.key, got, w)
				}
			}
		})
	}
}
