// Package app provides the JSON:API client: schema and endpoint
// registries on top of query encoding, the transport and the decoder.
package app

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/jsonapiclient/adapters/metrics"
	"github.com/artpar/jsonapiclient/domain/decode"
	"github.com/artpar/jsonapiclient/domain/query"
	"github.com/artpar/jsonapiclient/domain/resource"
	"github.com/artpar/jsonapiclient/ports"
)

// ErrDuplicateEndpoint is returned when a path is registered twice.
var ErrDuplicateEndpoint = errors.New("endpoint already registered")

// Deps contains dependencies for Client.
type Deps struct {
	Transport ports.Transport
	Logger    zerolog.Logger
	// Metrics is optional.
	Metrics *metrics.Collector
	// Schemas is optional; a new registry is created when nil.
	Schemas *resource.Registry
}

// Config contains configuration for Client.
type Config struct {
	// BaseURL is prefixed to every endpoint path.
	BaseURL string
	// MaxDepth bounds relationship expansion; 0 keeps the decoder default.
	MaxDepth int
	// PageQuery encodes Query.Page; nil uses the generic rule.
	PageQuery query.PageFunc
	// Headers are sent with every request.
	Headers http.Header
}

// Client owns the schema registry and the endpoints built on it.
type Client struct {
	baseURL    *url.URL
	schemas    *resource.Registry
	decoder    *decode.Decoder
	serializer query.Serializer
	transport  ports.Transport
	headers    http.Header
	logger     zerolog.Logger
	metrics    *metrics.Collector

	mu        sync.RWMutex
	endpoints map[string]*Endpoint
}

// New creates a client.
func New(deps Deps, cfg Config) (*Client, error) {
	if deps.Transport == nil {
		return nil, errors.New("transport is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	schemas := deps.Schemas
	if schemas == nil {
		schemas = resource.NewRegistry()
	}

	return &Client{
		baseURL: base,
		schemas: schemas,
		decoder: decode.New(schemas,
			decode.WithMaxDepth(cfg.MaxDepth),
			decode.WithLogger(deps.Logger),
		),
		serializer: query.Serializer{PageQuery: cfg.PageQuery},
		transport:  deps.Transport,
		headers:    cfg.Headers,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		endpoints:  make(map[string]*Endpoint),
	}, nil
}

// Schemas returns the client's schema registry.
func (c *Client) Schemas() *resource.Registry {
	return c.schemas
}

// Decoder returns the client's decoder.
func (c *Client) Decoder() *decode.Decoder {
	return c.decoder
}

// Serializer returns the client's query serializer.
func (c *Client) Serializer() query.Serializer {
	return c.serializer
}

// RegisterSchema adds a resource schema. Registering a type twice is an
// error.
func (c *Client) RegisterSchema(s resource.Schema) error {
	return c.schemas.Register(s)
}

// Endpoint registers an endpoint serving resources of type typ at path.
// The type must already be registered and the path must be new.
func (c *Client) Endpoint(path, typ string) (*Endpoint, error) {
	if _, err := c.schemas.Lookup(typ); err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", path, err)
	}
	key := normalizePath(path)
	if key == "/" {
		return nil, fmt.Errorf("endpoint path is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.endpoints[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEndpoint, key)
	}
	e := &Endpoint{client: c, path: key, typ: typ}
	c.endpoints[key] = e
	return e, nil
}

// MustEndpoint is like Endpoint but panics on error.
func (c *Client) MustEndpoint(path, typ string) *Endpoint {
	e, err := c.Endpoint(path, typ)
	if err != nil {
		panic(err)
	}
	return e
}

// Lookup returns the endpoint registered at path.
func (c *Client) Lookup(path string) (*Endpoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.endpoints[normalizePath(path)]
	return e, ok
}

// Endpoints returns all endpoints ordered by path.
func (c *Client) Endpoints() []*Endpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Endpoint, 0, len(c.endpoints))
	for _, e := range c.endpoints {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

func normalizePath(p string) string {
	return "/" + strings.Trim(p, "/")
}

func (c *Client) record(e *Endpoint, operation, outcome string) {
	if c.metrics != nil {
		c.metrics.EndpointCalls.WithLabelValues(e.path, operation, outcome).Inc()
	}
}

func (c *Client) recordDecode(typ string, decoded int, errs decode.Errors) {
	if c.metrics == nil {
		return
	}
	if decoded > 0 {
		c.metrics.DecodedResources.WithLabelValues(typ).Add(float64(decoded))
	}
	for kind, n := range errs.Counts() {
		c.metrics.DecodeErrors.WithLabelValues(string(kind)).Add(float64(n))
	}
}
