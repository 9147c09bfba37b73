// Package http provides the net/http implementation of ports.Transport.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/artpar/jsonapiclient/adapters/clock"
	"github.com/artpar/jsonapiclient/adapters/idgen"
	"github.com/artpar/jsonapiclient/adapters/metrics"
	"github.com/artpar/jsonapiclient/pkg/jsonapi"
	"github.com/artpar/jsonapiclient/ports"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 50 << 20

// maxErrorBody caps the raw body kept on an ErrorResponse.
const maxErrorBody = 512

// Config contains configuration for the transport.
type Config struct {
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
	// UserAgent defaults to "jsonapiclient".
	UserAgent string
}

// Deps contains the transport's collaborators. Zero values are replaced
// with working defaults.
type Deps struct {
	Logger  zerolog.Logger
	Metrics *metrics.Collector
	IDGen   ports.IDGenerator
	Clock   ports.Clock
}

// Transport performs JSON:API requests over HTTP.
type Transport struct {
	client    *http.Client
	userAgent string

	logger  zerolog.Logger
	metrics *metrics.Collector
	idGen   ports.IDGenerator
	clock   ports.Clock
}

// New creates a transport.
func New(cfg Config, deps Deps) *Transport {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 100
	}

	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "jsonapiclient"
	}

	if deps.IDGen == nil {
		deps.IDGen = idgen.UUID{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}

	return &Transport{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        maxIdleConns,
				MaxIdleConnsPerHost: maxIdleConns,
				IdleConnTimeout:     idleConnTimeout,
			},
			Timeout: timeout,
		},
		userAgent: userAgent,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		idGen:     deps.IDGen,
		clock:     deps.Clock,
	}
}

// HandleRequest sends the request and parses the response document.
func (t *Transport) HandleRequest(ctx context.Context, u *url.URL, opts ports.RequestOptions) (jsonapi.Document, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return jsonapi.Document{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", jsonapi.ContentType)
	req.Header.Set("Content-Type", jsonapi.ContentType)
	req.Header.Set("User-Agent", t.userAgent)
	for k, values := range opts.Headers {
		req.Header.Del(k)
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	requestID := req.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = t.idGen.New()
		req.Header.Set("X-Request-ID", requestID)
	}

	log := t.logger.With().
		Str("request_id", requestID).
		Str("method", method).
		Str("url", u.Redacted()).
		Logger()

	if t.metrics != nil {
		t.metrics.RequestsInFlight.Inc()
		defer t.metrics.RequestsInFlight.Dec()
	}

	start := t.clock.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		t.failed(errorType(err))
		log.Error().Err(err).Msg("request failed")
		return jsonapi.Document{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	elapsed := clock.Since(t.clock, start)
	if t.metrics != nil {
		t.metrics.RequestsTotal.WithLabelValues(method, metrics.StatusClass(resp.StatusCode)).Inc()
		t.metrics.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	}
	if err != nil {
		t.failed("read")
		log.Error().Err(err).Msg("read response failed")
		return jsonapi.Document{}, fmt.Errorf("read response: %w", err)
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", elapsed).
		Msg("request completed")

	if resp.StatusCode >= 400 {
		t.failed("status")
		return jsonapi.Document{}, errorResponse(resp.StatusCode, body)
	}

	if resp.StatusCode == http.StatusNoContent || len(strings.TrimSpace(string(body))) == 0 {
		return jsonapi.Document{}, nil
	}

	var doc jsonapi.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		t.failed("decode")
		return jsonapi.Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Close releases idle connections.
func (t *Transport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func (t *Transport) failed(kind string) {
	if t.metrics != nil {
		t.metrics.TransportErrors.WithLabelValues(kind).Inc()
	}
}

// errorResponse maps an error status to *jsonapi.ErrorResponse, keeping
// the error objects when the body is a JSON:API error document.
func errorResponse(status int, body []byte) *jsonapi.ErrorResponse {
	out := &jsonapi.ErrorResponse{StatusCode: status}

	var doc jsonapi.Document
	if err := json.Unmarshal(body, &doc); err == nil && len(doc.Errors) > 0 {
		out.Errors = doc.Errors
		return out
	}

	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	out.Body = text
	return out
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "connection"
}

var _ ports.Transport = (*Transport)(nil)
