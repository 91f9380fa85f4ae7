package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/onion/errors"
)

const testConfig = `
name: onion-test
environment: production
logging:
  level: error
  format: json
pipeline:
  layers:
    - name: request_id
    - name: retry
      parameters:
        max_attempts: 3
        initial_backoff: 1ms
        max_backoff: 2ms
    - name: recover
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "onion.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestLayersCommand(t *testing.T) {
	out, err := execute(t, "layers", "--config", writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("layers: %v", err)
	}
	want := "0\trecover\n1\tretry\n2\trequest_id\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRunCommand(t *testing.T) {
	path := writeConfig(t, testConfig)

	tests := []struct {
		name     string
		args     []string
		want     string
		wantCode errors.ErrorCode
	}{
		{"echoes arguments", []string{"hello", "world"}, "hello world\n", ""},
		{"retries transient failures", []string{"--fail", "2", "again"}, "again\n", ""},
		{"gives up after max attempts", []string{"--fail", "5", "never"}, "", errors.ErrCodeServiceUnavailable},
		{"call-time parameters win", []string{"--fail", "1", "-p", "retry.max_attempts=1", "x"}, "", errors.ErrCodeServiceUnavailable},
		{"malformed parameter", []string{"-p", "max_attempts=1"}, "", errors.ErrCodeInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"run", "--config", path}, tc.args...)...)
			if tc.wantCode != "" {
				if !errors.HasCode(err, tc.wantCode) {
					t.Fatalf("err = %v, want %s", err, tc.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if out != tc.want {
				t.Errorf("output = %q, want %q", out, tc.want)
			}
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	path := writeConfig(t, "name: onion\nenvironment: qa\n")
	if _, err := execute(t, "layers", "--config", path); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "layers", "--config", filepath.Join(t.TempDir(), "missing.yml"))
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"retry.max_attempts=5", "retry.jitter=0", "timeout.timeout=2s"})
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	if params["retry"]["max_attempts"] != "5" || params["retry"]["jitter"] != "0" {
		t.Errorf("retry = %v", params["retry"])
	}
	if params["timeout"]["timeout"] != "2s" {
		t.Errorf("timeout = %v", params["timeout"])
	}

	for _, bad := range []string{"retry", "retry.max_attempts", ".x=1", "retry.=1"} {
		if _, err := parseParams([]string{bad}); err == nil {
			t.Errorf("parseParams(%q) succeeded", bad)
		}
	}

	if params, err := parseParams(nil); params != nil || err != nil {
		t.Errorf("parseParams(nil) = %v, %v", params, err)
	}
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := newApp(context.Background(), &rootFlags{configFile: writeConfig(t, testConfig)})
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	r := newRouter(a)

	t.Run("layers", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/layers", http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		var body struct{ Layers []string }
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if strings.Join(body.Layers, ",") != "recover,retry,request_id" {
			t.Errorf("layers = %v", body.Layers)
		}
	})

	t.Run("run", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"args":["a","b"]}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
		}
		if rr.Body.String() != `{"result":"a b"}` {
			t.Errorf("body = %s", rr.Body.String())
		}
		if rr.Header().Get("X-Request-Id") == "" {
			t.Error("missing request id header")
		}
	})

	t.Run("version", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/version", http.NoBody))
		if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"version"`) {
			t.Errorf("status = %d body = %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"args":`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
	})
}
