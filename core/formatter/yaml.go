package formatter

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/artpar/jsonapiclient/domain/resource"
)

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Name returns the formatter name.
func (f *YAMLFormatter) Name() string {
	return "yaml"
}

// Description returns the formatter description.
func (f *YAMLFormatter) Description() string {
	return "YAML output format"
}

// FormatList formats resources as YAML.
func (f *YAMLFormatter) FormatList(w io.Writer, s resource.Schema, items []*resource.Resource, opts FormatOptions) error {
	output := map[string]any{
		"type":  s.Type(),
		"count": len(items),
		"data":  records(items, opts.Columns),
	}
	return f.encode(w, output)
}

// FormatResource formats a single resource as YAML.
func (f *YAMLFormatter) FormatResource(w io.Writer, s resource.Schema, r *resource.Resource, opts FormatOptions) error {
	output := map[string]any{
		"type": s.Type(),
		"data": record(r, opts.Columns),
	}
	return f.encode(w, output)
}

// FormatError formats an error as YAML.
func (f *YAMLFormatter) FormatError(w io.Writer, err error) error {
	return f.encode(w, errorOutput(err))
}

func (f *YAMLFormatter) encode(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(data)
}

func init() {
	if err := Register(NewYAMLFormatter()); err != nil {
		fmt.Printf("failed to register yaml formatter: %v\n", err)
	}
}
