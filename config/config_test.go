package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/jsonapiclient/config"
	"github.com/artpar/jsonapiclient/domain/resource"
)

const fullConfig = `
api:
  base_url: "https://api.example.com/v1"
  timeout: 5s
  headers:
    Authorization: "Bearer ${TEST_JSONAPI_TOKEN}"

decode:
  max_depth: 4

pagination:
  style: number

logging:
  level: debug
  format: json

metrics:
  enabled: true
  path: /tmp/jsonapictl.prom

resources:
  - type: countries
    fields:
      - name: name
        kind: required
        value: nonempty
      - name: population
        kind: optional
        value: integer
      - name: capital
        kind: to_one
        related: cities
  - type: cities
    fields:
      - name: name
        kind: required
        value: string
      - name: country
        kind: to_one
        related: countries

endpoints:
  - path: countries
    type: countries
  - path: /cities
    type: cities
`

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv("TEST_JSONAPI_TOKEN", "secret")

	cfg := writeAndLoad(t, fullConfig)

	if cfg.API.BaseURL != "https://api.example.com/v1" {
		t.Errorf("API.BaseURL = %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("API.Timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.API.Headers["Authorization"] != "Bearer secret" {
		t.Errorf("Authorization = %q, want env expansion", cfg.API.Headers["Authorization"])
	}
	if cfg.Decode.MaxDepth != 4 {
		t.Errorf("Decode.MaxDepth = %d, want 4", cfg.Decode.MaxDepth)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %s, want json", cfg.Logging.Format)
	}
	if len(cfg.Resources) != 2 || len(cfg.Endpoints) != 2 {
		t.Fatalf("resources = %d, endpoints = %d", len(cfg.Resources), len(cfg.Endpoints))
	}
	if cfg.PageQuery() == nil {
		t.Error("number style should set a page encoder")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, `
api:
  base_url: "http://localhost:8080"
`)

	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.API.MaxIdleConns != 100 {
		t.Errorf("API.MaxIdleConns = %d, want 100", cfg.API.MaxIdleConns)
	}
	if cfg.API.IdleConnTimeout != 90*time.Second {
		t.Errorf("API.IdleConnTimeout = %v, want 90s", cfg.API.IdleConnTimeout)
	}
	if cfg.Decode.MaxDepth != 32 {
		t.Errorf("Decode.MaxDepth = %d, want 32", cfg.Decode.MaxDepth)
	}
	if cfg.Pagination.Style != "generic" {
		t.Errorf("Pagination.Style = %s, want generic", cfg.Pagination.Style)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Namespace != "jsonapi_client" {
		t.Errorf("Metrics.Namespace = %s", cfg.Metrics.Namespace)
	}
	if cfg.PageQuery() != nil {
		t.Error("generic style has no page encoder")
	}
}

func TestLoad_FieldDefaults(t *testing.T) {
	cfg := writeAndLoad(t, `
api:
  base_url: "http://localhost"
resources:
  - type: tags
    fields:
      - name: label
`)

	f := cfg.Resources[0].Fields[0]
	if f.Kind != "optional" || f.Value != "any" {
		t.Errorf("field = %+v, want optional/any", f)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing base url",
			content: "logging:\n  level: info\n",
			wantErr: "api.base_url is required",
		},
		{
			name:    "bad scheme",
			content: "api:\n  base_url: ftp://example.com\n",
			wantErr: "http, https or file",
		},
		{
			name:    "negative depth",
			content: "api:\n  base_url: http://x\ndecode:\n  max_depth: -1\n",
			wantErr: "decode.max_depth",
		},
		{
			name:    "unknown page style",
			content: "api:\n  base_url: http://x\npagination:\n  style: seek\n",
			wantErr: "pagination.style",
		},
		{
			name:    "bad log level",
			content: "api:\n  base_url: http://x\nlogging:\n  level: loud\n",
			wantErr: "logging.level",
		},
		{
			name:    "bad log format",
			content: "api:\n  base_url: http://x\nlogging:\n  format: xml\n",
			wantErr: "logging.format",
		},
		{
			name:    "metrics without path",
			content: "api:\n  base_url: http://x\nmetrics:\n  enabled: true\n",
			wantErr: "metrics.path",
		},
		{
			name: "unknown validator",
			content: `
api:
  base_url: http://x
resources:
  - type: a
    fields:
      - name: f
        kind: required
        value: colour
`,
			wantErr: "unknown validator",
		},
		{
			name: "unknown field kind",
			content: `
api:
  base_url: http://x
resources:
  - type: a
    fields:
      - name: f
        kind: embedded
`,
			wantErr: "kind must be one of",
		},
		{
			name: "dangling relationship",
			content: `
api:
  base_url: http://x
resources:
  - type: a
    fields:
      - name: b
        kind: to_one
        related: b
`,
			wantErr: "a.b",
		},
		{
			name: "duplicate type",
			content: `
api:
  base_url: http://x
resources:
  - type: a
  - type: a
`,
			wantErr: "already registered",
		},
		{
			name: "endpoint for undeclared type",
			content: `
api:
  base_url: http://x
endpoints:
  - path: a
    type: a
`,
			wantErr: "not a declared resource",
		},
		{
			name: "duplicate endpoint",
			content: `
api:
  base_url: http://x
resources:
  - type: a
endpoints:
  - path: a
    type: a
  - path: /a/
    type: a
`,
			wantErr: "declared twice",
		},
		{
			name:    "invalid yaml",
			content: "api: [unclosed",
			wantErr: "parse config",
		},
	}

	t.Setenv("JSONAPI_BASE_URL", "")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := writeAndLoadErr(t, tt.content)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load("/nonexistent/jsonapictl.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRegistry(t *testing.T) {
	t.Setenv("TEST_JSONAPI_TOKEN", "x")
	cfg := writeAndLoad(t, fullConfig)

	reg, err := cfg.Registry()
	if err != nil {
		t.Fatalf("Registry error: %v", err)
	}
	if got := reg.Types(); len(got) != 2 {
		t.Errorf("Types = %v", got)
	}

	countries, err := reg.Lookup("countries")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if names := countries.Names(); strings.Join(names, ",") != "name,population,capital" {
		t.Errorf("field order = %v", names)
	}

	name, _ := countries.Field("name")
	if name.Kind != resource.RequiredAttribute || name.Valid("  ") {
		t.Errorf("name field = %+v; nonempty validator should reject blanks", name)
	}
	population, _ := countries.Field("population")
	if !population.Valid(nil) || population.Valid(1.5) {
		t.Error("population should be an optional integer")
	}
	capital, _ := countries.Field("capital")
	if !capital.IsToOne() || capital.Related != "cities" {
		t.Errorf("capital field = %+v", capital)
	}
}

func TestResourceConfig_Schema(t *testing.T) {
	rc := config.ResourceConfig{
		Type: "articles",
		Fields: []config.FieldConfig{
			{Name: "title", Kind: "required", Value: "string"},
			{Name: "tags", Kind: "to_many", Related: "tags"},
		},
	}

	s, err := rc.Schema()
	if err != nil {
		t.Fatalf("Schema error: %v", err)
	}
	if s.Type() != "articles" || s.Len() != 2 {
		t.Errorf("schema = %s with %d fields", s.Type(), s.Len())
	}
	tags, _ := s.Field("tags")
	if !tags.IsToMany() {
		t.Error("tags should be to-many")
	}

	rc.Fields = append(rc.Fields, config.FieldConfig{Kind: "required", Value: "string"})
	if _, err := rc.Schema(); err == nil {
		t.Error("expected error for a field without a name")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JSONAPI_BASE_URL", "http://env-api:8000")
	t.Setenv("JSONAPI_TIMEOUT", "2s")
	t.Setenv("JSONAPI_MAX_DEPTH", "7")
	t.Setenv("JSONAPI_PAGINATION", "offset")
	t.Setenv("JSONAPI_LOG_LEVEL", "debug")
	t.Setenv("JSONAPI_LOG_FORMAT", "json")
	t.Setenv("JSONAPI_METRICS_ENABLED", "yes")
	t.Setenv("JSONAPI_METRICS_PATH", "/tmp/m.prom")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.API.BaseURL != "http://env-api:8000" {
		t.Errorf("API.BaseURL = %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 2*time.Second {
		t.Errorf("API.Timeout = %v, want 2s", cfg.API.Timeout)
	}
	if cfg.Decode.MaxDepth != 7 {
		t.Errorf("Decode.MaxDepth = %d, want 7", cfg.Decode.MaxDepth)
	}
	if cfg.Pagination.Style != "offset" {
		t.Errorf("Pagination.Style = %s, want offset", cfg.Pagination.Style)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/tmp/m.prom" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
}

func TestLoadFromEnv_MissingRequired(t *testing.T) {
	t.Setenv("JSONAPI_BASE_URL", "")

	if _, err := config.LoadFromEnv(); err == nil {
		t.Fatal("expected error for missing base URL")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("JSONAPI_BASE_URL", "http://override:9000")
	t.Setenv("JSONAPI_MAX_DEPTH", "not-a-number")

	cfg := writeAndLoad(t, `
api:
  base_url: "http://file:8000"
decode:
  max_depth: 3
`)

	if cfg.API.BaseURL != "http://override:9000" {
		t.Errorf("API.BaseURL = %s, want the environment value", cfg.API.BaseURL)
	}
	if cfg.Decode.MaxDepth != 3 {
		t.Errorf("Decode.MaxDepth = %d; unparsable overrides are ignored", cfg.Decode.MaxDepth)
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Run("file exists", func(t *testing.T) {
		t.Setenv("JSONAPI_BASE_URL", "")
		path := writeConfig(t, "api:\n  base_url: http://file\n")

		cfg, err := config.LoadWithFallback(path)
		if err != nil {
			t.Fatalf("LoadWithFallback error: %v", err)
		}
		if cfg.API.BaseURL != "http://file" {
			t.Errorf("API.BaseURL = %s", cfg.API.BaseURL)
		}
	})

	t.Run("env only", func(t *testing.T) {
		t.Setenv("JSONAPI_BASE_URL", "http://env")

		cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("LoadWithFallback error: %v", err)
		}
		if cfg.API.BaseURL != "http://env" {
			t.Errorf("API.BaseURL = %s", cfg.API.BaseURL)
		}
	})

	t.Run("nothing", func(t *testing.T) {
		t.Setenv("JSONAPI_BASE_URL", "")

		if _, err := config.LoadWithFallback(""); err == nil {
			t.Fatal("expected error without file or environment")
		}
	})
}

func TestHasEnvConfig(t *testing.T) {
	t.Setenv("JSONAPI_BASE_URL", "")
	if config.HasEnvConfig() {
		t.Error("HasEnvConfig should be false")
	}
	t.Setenv("JSONAPI_BASE_URL", "http://x")
	if !config.HasEnvConfig() {
		t.Error("HasEnvConfig should be true")
	}
}

func TestParseBoolValues(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{" on ", true},
		{"false", false},
		{"0", false},
		{"nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("JSONAPI_BASE_URL", "http://x")
			t.Setenv("JSONAPI_METRICS_ENABLED", tt.value)
			t.Setenv("JSONAPI_METRICS_PATH", "/tmp/m.prom")

			cfg, err := config.LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv error: %v", err)
			}
			if cfg.Metrics.Enabled != tt.want {
				t.Errorf("Metrics.Enabled = %v, want %v", cfg.Metrics.Enabled, tt.want)
			}
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "jsonapictl.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()
	return config.Load(writeConfig(t, content))
}
