package formatter

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/artpar/jsonapiclient/domain/resource"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the formatter name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Description returns the formatter description.
func (f *JSONFormatter) Description() string {
	return "JSON output format"
}

// FormatList formats resources as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, s resource.Schema, items []*resource.Resource, opts FormatOptions) error {
	output := map[string]any{
		"type":  s.Type(),
		"count": len(items),
		"data":  records(items, opts.Columns),
	}
	return f.encode(w, output, opts.Compact)
}

// FormatResource formats a single resource as JSON.
func (f *JSONFormatter) FormatResource(w io.Writer, s resource.Schema, r *resource.Resource, opts FormatOptions) error {
	output := map[string]any{
		"type": s.Type(),
		"data": record(r, opts.Columns),
	}
	return f.encode(w, output, opts.Compact)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, errorOutput(err), false)
}

func (f *JSONFormatter) encode(w io.Writer, data any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

func init() {
	if err := Register(NewJSONFormatter()); err != nil {
		fmt.Printf("failed to register json formatter: %v\n", err)
	}
}
