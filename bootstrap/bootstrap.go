// Package bootstrap wires a configured client: logger, metrics, transport,
// schema registry and endpoints.
package bootstrap

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	apihttp "github.com/artpar/jsonapiclient/adapters/http"
	"github.com/artpar/jsonapiclient/adapters/idgen"
	"github.com/artpar/jsonapiclient/adapters/memory"
	"github.com/artpar/jsonapiclient/adapters/metrics"
	"github.com/artpar/jsonapiclient/app"
	"github.com/artpar/jsonapiclient/config"
	"github.com/artpar/jsonapiclient/ports"
)

// App represents a configured client and its supporting adapters.
type App struct {
	Logger   zerolog.Logger
	Config   *config.Config
	Client   *app.Client
	Metrics  *metrics.Collector
	Registry *prometheus.Registry

	// Fixtures is set when the base URL is a file:// directory.
	Fixtures *memory.Transport

	upstream *apihttp.Transport
}

// Options provides optional overrides for initialization.
type Options struct {
	// LogOutput receives log lines; defaults to stderr.
	LogOutput io.Writer
	// IDGen overrides the request id generator.
	IDGen ports.IDGenerator
}

// New creates the application from a loaded configuration.
func New(cfg *config.Config, opts Options) (*App, error) {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	logger := NewLogger(cfg.Logging, opts.LogOutput)

	a := &App{
		Logger:   logger,
		Config:   cfg,
		Registry: prometheus.NewRegistry(),
	}
	a.Metrics = metrics.NewWithRegistry(a.Registry, cfg.Metrics.Namespace)

	schemas, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("build schemas: %w", err)
	}

	transport, baseURL, err := a.initTransport(opts)
	if err != nil {
		return nil, fmt.Errorf("init transport: %w", err)
	}

	headers := make(http.Header, len(cfg.API.Headers))
	for k, v := range cfg.API.Headers {
		headers.Set(k, v)
	}

	client, err := app.New(app.Deps{
		Transport: transport,
		Logger:    logger,
		Metrics:   a.Metrics,
		Schemas:   schemas,
	}, app.Config{
		BaseURL:   baseURL,
		MaxDepth:  cfg.Decode.MaxDepth,
		PageQuery: cfg.PageQuery(),
		Headers:   headers,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	a.Client = client

	for _, e := range cfg.Endpoints {
		if _, err := client.Endpoint(e.Path, e.Type); err != nil {
			return nil, fmt.Errorf("register endpoint: %w", err)
		}
	}

	logger.Debug().
		Str("base_url", cfg.API.BaseURL).
		Strs("types", schemas.Types()).
		Int("endpoints", len(cfg.Endpoints)).
		Msg("client initialized")

	return a, nil
}

// initTransport selects the fixture transport for file:// base URLs and
// the HTTP transport otherwise. It returns the base URL the client should
// resolve endpoint paths against.
func (a *App) initTransport(opts Options) (ports.Transport, string, error) {
	u, err := url.Parse(a.Config.API.BaseURL)
	if err != nil {
		return nil, "", err
	}

	if u.Scheme == "file" {
		dir := fixtureDir(u)
		fixtures := memory.NewTransport()
		if err := fixtures.LoadDir(dir); err != nil {
			return nil, "", fmt.Errorf("load fixtures: %w", err)
		}
		a.Fixtures = fixtures
		a.Logger.Debug().
			Str("dir", dir).
			Int("fixtures", len(fixtures.Paths())).
			Msg("serving fixtures")
		return fixtures, "/", nil
	}

	idGen := opts.IDGen
	if idGen == nil {
		idGen = idgen.UUID{}
	}
	a.upstream = apihttp.New(apihttp.Config{
		Timeout:         a.Config.API.Timeout,
		MaxIdleConns:    a.Config.API.MaxIdleConns,
		IdleConnTimeout: a.Config.API.IdleConnTimeout,
	}, apihttp.Deps{
		Logger:  a.Logger,
		Metrics: a.Metrics,
		IDGen:   idGen,
	})
	return a.upstream, a.Config.API.BaseURL, nil
}

// fixtureDir accepts file:///abs/dir, file://rel/dir and file:rel/dir.
func fixtureDir(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Host + u.Path
}

// Shutdown releases connections and writes the metrics snapshot when
// enabled.
func (a *App) Shutdown() error {
	if a.upstream != nil {
		a.upstream.Close()
	}

	if a.Config.Metrics.Enabled && a.Config.Metrics.Path != "" {
		if err := metrics.WriteTextfile(a.Registry, a.Config.Metrics.Path); err != nil {
			a.Logger.Error().Err(err).Msg("write metrics failed")
			return fmt.Errorf("write metrics: %w", err)
		}
		a.Logger.Debug().Str("path", a.Config.Metrics.Path).Msg("metrics written")
	}
	return nil
}

// NewLogger builds the logger described by cfg.
func NewLogger(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
