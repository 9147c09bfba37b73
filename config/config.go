// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artpar/jsonapiclient/domain/query"
	"github.com/artpar/jsonapiclient/domain/resource"
)

// Config is the root configuration structure.
type Config struct {
	API        APIConfig        `yaml:"api"`
	Decode     DecodeConfig     `yaml:"decode"`
	Pagination PaginationConfig `yaml:"pagination"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Resources  []ResourceConfig `yaml:"resources"`
	Endpoints  []EndpointConfig `yaml:"endpoints"`
}

// APIConfig configures the JSON:API server connection.
type APIConfig struct {
	// BaseURL is an http(s) URL, or file:// for a directory of fixtures.
	BaseURL         string            `yaml:"base_url"`
	Timeout         time.Duration     `yaml:"timeout"`
	MaxIdleConns    int               `yaml:"max_idle_conns"`
	IdleConnTimeout time.Duration     `yaml:"idle_conn_timeout"`
	Headers         map[string]string `yaml:"headers,omitempty"`
}

// DecodeConfig configures the resource decoder.
type DecodeConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// PaginationConfig selects how Query.Page is encoded.
type PaginationConfig struct {
	Style string `yaml:"style"` // "generic", "number", "offset", "cursor"
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures the metrics snapshot written after a command.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"` // textfile destination
	Namespace string `yaml:"namespace"`
}

// ResourceConfig declares a resource schema.
type ResourceConfig struct {
	Type   string        `yaml:"type"`
	Fields []FieldConfig `yaml:"fields"`
}

// FieldConfig declares one field of a resource schema.
type FieldConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "required", "optional", "to_one", "to_many"
	// Value names the attribute validator (see resource.ValidatorNames).
	Value   string `yaml:"value,omitempty"`
	Related string `yaml:"related,omitempty"`
}

// EndpointConfig binds a path to a resource type.
type EndpointConfig struct {
	Path string `yaml:"path"`
	Type string `yaml:"type"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// Schemas and endpoints can only be declared in a file, so the result is
// limited to raw requests.
//
// Environment variables:
//
//	JSONAPI_BASE_URL         - Server base URL (required)
//	JSONAPI_TIMEOUT          - Request timeout (default: 30s)
//	JSONAPI_MAX_DEPTH        - Relationship expansion limit (default: 32)
//	JSONAPI_PAGINATION       - Page style: generic, number, offset, cursor
//	JSONAPI_LOG_LEVEL        - Log level: debug, info, warn, error (default: info)
//	JSONAPI_LOG_FORMAT       - Log format: json or console (default: console)
//	JSONAPI_METRICS_ENABLED  - Write a metrics snapshot (default: false)
//	JSONAPI_METRICS_PATH     - Snapshot file path
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists, otherwise the environment.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if HasEnvConfig() {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide config file or set JSONAPI_BASE_URL")
}

// HasEnvConfig returns true if essential environment variables are set.
func HasEnvConfig() bool {
	return os.Getenv("JSONAPI_BASE_URL") != ""
}

// applyEnvOverrides applies JSONAPI_* environment variables to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JSONAPI_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("JSONAPI_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = d
		}
	}
	if v := os.Getenv("JSONAPI_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Decode.MaxDepth = n
		}
	}
	if v := os.Getenv("JSONAPI_PAGINATION"); v != "" {
		cfg.Pagination.Style = v
	}

	if v := os.Getenv("JSONAPI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JSONAPI_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("JSONAPI_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("JSONAPI_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.MaxIdleConns == 0 {
		cfg.API.MaxIdleConns = 100
	}
	if cfg.API.IdleConnTimeout == 0 {
		cfg.API.IdleConnTimeout = 90 * time.Second
	}

	if cfg.Decode.MaxDepth == 0 {
		cfg.Decode.MaxDepth = 32
	}

	if cfg.Pagination.Style == "" {
		cfg.Pagination.Style = "generic"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "jsonapi_client"
	}

	for i := range cfg.Resources {
		for j := range cfg.Resources[i].Fields {
			f := &cfg.Resources[i].Fields[j]
			f.Kind = strings.ToLower(f.Kind)
			if f.Kind == "" {
				f.Kind = "optional"
			}
			if f.Value == "" && (f.Kind == "required" || f.Kind == "optional") {
				f.Value = "any"
			}
		}
	}
}

func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	validSchemes := map[string]bool{"http": true, "https": true, "file": true}
	if !validSchemes[u.Scheme] {
		return fmt.Errorf("api.base_url must use http, https or file, got %q", u.Scheme)
	}

	if cfg.Decode.MaxDepth < 0 {
		return fmt.Errorf("decode.max_depth must not be negative")
	}

	if _, ok := query.PageStyle(cfg.Pagination.Style); !ok {
		return fmt.Errorf("pagination.style must be one of: %s", strings.Join(query.PageStyles(), ", "))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		return fmt.Errorf("metrics.path is required when metrics.enabled is true")
	}

	if _, err := cfg.Registry(); err != nil {
		return err
	}

	types := make(map[string]bool, len(cfg.Resources))
	for _, r := range cfg.Resources {
		types[r.Type] = true
	}
	seen := make(map[string]bool, len(cfg.Endpoints))
	for i, e := range cfg.Endpoints {
		if strings.Trim(e.Path, "/") == "" {
			return fmt.Errorf("endpoints[%d].path is required", i)
		}
		if !types[e.Type] {
			return fmt.Errorf("endpoints[%d].type %q is not a declared resource", i, e.Type)
		}
		key := "/" + strings.Trim(e.Path, "/")
		if seen[key] {
			return fmt.Errorf("endpoints[%d].path %q is declared twice", i, key)
		}
		seen[key] = true
	}

	return nil
}

// Schema converts the declaration into a resource schema.
func (r ResourceConfig) Schema() (resource.Schema, error) {
	b := resource.Define(r.Type)
	for i, f := range r.Fields {
		if f.Name == "" {
			return resource.Schema{}, fmt.Errorf("resources[%s].fields[%d].name is required", r.Type, i)
		}
		switch f.Kind {
		case "required", "optional":
			v, ok := resource.ValidatorByName(f.Value)
			if !ok {
				return resource.Schema{}, fmt.Errorf("resources[%s].fields[%s]: unknown validator %q (known: %s)",
					r.Type, f.Name, f.Value, strings.Join(resource.ValidatorNames(), ", "))
			}
			if f.Kind == "required" {
				b.Required(f.Name, v)
			} else {
				b.Optional(f.Name, v)
			}
		case "to_one":
			b.ToOne(f.Name, f.Related)
		case "to_many":
			b.ToMany(f.Name, f.Related)
		default:
			return resource.Schema{}, fmt.Errorf("resources[%s].fields[%s]: kind must be one of: required, optional, to_one, to_many", r.Type, f.Name)
		}
	}
	return b.Build()
}

// Registry builds a schema registry from the resources section. Every
// relationship must point at a declared type.
func (c *Config) Registry() (*resource.Registry, error) {
	reg := resource.NewRegistry()
	var errs []error
	for _, r := range c.Resources {
		s, err := r.Schema()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := reg.Register(s); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := reg.Check(); err != nil {
		return nil, err
	}
	return reg, nil
}

// PageQuery returns the page encoder for the configured style.
func (c *Config) PageQuery() query.PageFunc {
	fn, _ := query.PageStyle(c.Pagination.Style)
	return fn
}
