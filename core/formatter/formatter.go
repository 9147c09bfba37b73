// Package formatter provides a pluggable output formatting system.
// Formatters render decoded resources as table, json or yaml.
package formatter

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/artpar/jsonapiclient/domain/decode"
	"github.com/artpar/jsonapiclient/domain/resource"
	"github.com/artpar/jsonapiclient/pkg/jsonapi"
)

// Formatter converts decoded resources to a specific output format.
type Formatter interface {
	// Name returns the formatter name (e.g., "table", "json", "yaml").
	Name() string

	// Description returns a human-readable description.
	Description() string

	// FormatList formats the resources of one type.
	FormatList(w io.Writer, s resource.Schema, items []*resource.Resource, opts FormatOptions) error

	// FormatResource formats a single resource.
	FormatResource(w io.Writer, s resource.Schema, r *resource.Resource, opts FormatOptions) error

	// FormatError formats an error, listing decode and server error details.
	FormatError(w io.Writer, err error) error
}

// FormatOptions configures formatting behavior.
type FormatOptions struct {
	// Columns specifies which fields to include (nil = id and every schema field).
	Columns []string

	// NoHeader disables header row for tabular formats.
	NoHeader bool

	// Compact minimizes whitespace (json only).
	Compact bool

	// MaxWidth truncates long values (0 = no limit).
	MaxWidth int
}

// Registry manages registered formatters.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	defaultFmt string
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
		defaultFmt: "table",
	}
}

// Register adds a formatter to the registry.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Name()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}

	r.formatters[f.Name()] = f
	return nil
}

// Get returns a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[name]
	return f, ok
}

// Default returns the default formatter.
func (r *Registry) Default() Formatter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.formatters[r.defaultFmt]; ok {
		return f
	}
	for _, name := range r.sortedNames() {
		return r.formatters[name]
	}
	return nil
}

// SetDefault sets the default formatter.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[name]; !exists {
		return fmt.Errorf("formatter %q not registered", name)
	}

	r.defaultFmt = name
	return nil
}

// List returns all registered formatter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(f Formatter) error {
	return DefaultRegistry.Register(f)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// Default returns the default formatter from the default registry.
func Default() Formatter {
	return DefaultRegistry.Default()
}

// List returns all formatter names from the default registry.
func List() []string {
	return DefaultRegistry.List()
}

// columns returns the requested columns, or id followed by every schema
// field in declaration order.
func columns(s resource.Schema, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return append([]string{"id"}, s.Names()...)
}

// record flattens r and keeps type, id and the requested columns.
func record(r *resource.Resource, requested []string) map[string]any {
	if r == nil {
		return nil
	}
	m := r.Map()
	if len(requested) == 0 {
		return m
	}

	out := map[string]any{"type": m["type"], "id": m["id"]}
	for _, col := range requested {
		if v, ok := m[col]; ok {
			out[col] = v
		}
	}
	return out
}

func records(items []*resource.Resource, requested []string) []map[string]any {
	out := make([]map[string]any, len(items))
	for i, r := range items {
		out[i] = record(r, requested)
	}
	return out
}

// errorDetails collects the decode errors carried by err, including every
// element of a combined collection error.
func errorDetails(err error) []*decode.Error {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		var out []*decode.Error
		for _, e := range merr.Errors {
			out = append(out, errorDetails(e)...)
		}
		return out
	}
	errs, _ := decode.AsErrors(err)
	return errs
}

// serverErrors returns the error objects of a server error response.
func serverErrors(err error) (int, []jsonapi.Error) {
	var resp *jsonapi.ErrorResponse
	if !errors.As(err, &resp) {
		return 0, nil
	}
	return resp.StatusCode, resp.Errors
}

// errorOutput is the structured form used by the json and yaml formatters.
func errorOutput(err error) map[string]any {
	output := map[string]any{
		"error": err.Error(),
	}
	if details := errorDetails(err); len(details) > 0 {
		output["errors"] = details
	}
	if status, errs := serverErrors(err); status != 0 {
		output["status"] = status
		if len(errs) > 0 {
			output["errors"] = errs
		}
	}
	return output
}
