// Package memory provides an in-memory JSON:API transport for tests and
// offline fixtures.
package memory

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/artpar/jsonapiclient/pkg/jsonapi"
	"github.com/artpar/jsonapiclient/ports"
)

// Request records one call made through the transport.
type Request struct {
	Method  string
	URL     string
	Headers http.Header
}

type response struct {
	doc jsonapi.Document
	err error
}

// Transport serves canned documents keyed by URL path. The query string
// is recorded but does not take part in the lookup.
type Transport struct {
	mu        sync.RWMutex
	responses map[string]response
	requests  []Request
}

// NewTransport creates an empty transport.
func NewTransport() *Transport {
	return &Transport{
		responses: make(map[string]response),
	}
}

// Add serves doc for GET requests to p.
func (t *Transport) Add(p string, doc jsonapi.Document) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[clean(p)] = response{doc: doc}
}

// AddError answers requests to p with an error response.
func (t *Transport) AddError(p string, status int, errs ...jsonapi.Error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[clean(p)] = response{err: &jsonapi.ErrorResponse{StatusCode: status, Errors: errs}}
}

// Fail answers requests to p with a transport failure.
func (t *Transport) Fail(p string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[clean(p)] = response{err: err}
}

// HandleRequest returns the document registered for u's path. Unknown
// paths answer with a 404 error response.
func (t *Transport) HandleRequest(ctx context.Context, u *url.URL, opts ports.RequestOptions) (jsonapi.Document, error) {
	if err := ctx.Err(); err != nil {
		return jsonapi.Document{}, err
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.requests = append(t.requests, Request{Method: method, URL: u.String(), Headers: opts.Headers.Clone()})

	resp, ok := t.responses[clean(u.Path)]
	if !ok {
		return jsonapi.Document{}, &jsonapi.ErrorResponse{
			StatusCode: http.StatusNotFound,
			Errors:     []jsonapi.Error{jsonapi.NewError(http.StatusNotFound, "not_found", "Not Found").Detailf("no fixture for %s", u.Path).Build()},
		}
	}
	return resp.doc, resp.err
}

// Requests returns the calls made so far.
func (t *Transport) Requests() []Request {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Request, len(t.requests))
	copy(out, t.requests)
	return out
}

// Paths returns the registered paths.
func (t *Transport) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	paths := make([]string, 0, len(t.responses))
	for p := range t.responses {
		paths = append(paths, p)
	}
	return paths
}

// Clear removes all fixtures and recorded requests.
func (t *Transport) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses = make(map[string]response)
	t.requests = nil
}

// LoadDir registers every *.json file under dir as a fixture. The path
// is the file's location relative to dir without the extension, so
// countries/1.json answers /countries/1.
func (t *Transport) LoadDir(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".json" {
			return nil
		}

		b, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read fixture: %w", err)
		}
		doc, err := jsonapi.Parse(b)
		if err != nil {
			return fmt.Errorf("parse fixture %s: %w", p, err)
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		t.Add(strings.TrimSuffix(filepath.ToSlash(rel), ".json"), doc)
		return nil
	})
}

func clean(p string) string {
	return path.Clean("/" + strings.Trim(p, "/"))
}

var _ ports.Transport = (*Transport)(nil)
