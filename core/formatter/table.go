package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"

	"github.com/artpar/jsonapiclient/domain/resource"
)

// TableFormatter formats output as aligned text tables.
type TableFormatter struct{}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Name returns the formatter name.
func (f *TableFormatter) Name() string {
	return "table"
}

// Description returns the formatter description.
func (f *TableFormatter) Description() string {
	return "Aligned text table output"
}

// FormatList formats resources as a table, one row each.
func (f *TableFormatter) FormatList(w io.Writer, s resource.Schema, items []*resource.Resource, opts FormatOptions) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "No resources found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cols := columns(s, opts.Columns)

	if !opts.NoHeader {
		headers := make([]string, len(cols))
		for i, col := range cols {
			headers[i] = strings.ToUpper(col)
		}
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}

	for _, r := range items {
		m := r.Map()
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = f.formatValue(m[col], opts.MaxWidth)
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}

	return tw.Flush()
}

// FormatResource formats a single resource as key-value pairs.
func (f *TableFormatter) FormatResource(w io.Writer, s resource.Schema, r *resource.Resource, opts FormatOptions) error {
	if r == nil {
		fmt.Fprintln(w, "Resource not found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	m := r.Map()

	fmt.Fprintf(tw, "Type:\t%s\n", r.Type)
	for _, col := range columns(s, opts.Columns) {
		fmt.Fprintf(tw, "%s:\t%s\n", f.formatLabel(col), f.formatValue(m[col], 0))
	}

	return tw.Flush()
}

// FormatError formats an error message followed by its details.
func (f *TableFormatter) FormatError(w io.Writer, err error) error {
	fmt.Fprintf(w, "Error: %s\n", err.Error())

	for _, d := range errorDetails(err) {
		where := d.Pointer
		if d.Type != "" {
			where = d.Type + "/" + d.ID + where
		}
		fmt.Fprintf(w, "  - [%s] %s: %s\n", d.Kind, where, d.Message)
	}
	if _, errs := serverErrors(err); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(w, "  - %s\n", e.String())
		}
	}
	return nil
}

// formatLabel formats a field name as a label.
func (f *TableFormatter) formatLabel(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// formatValue formats a value for display. Linked resources show as
// type/id.
func (f *TableFormatter) formatValue(val any, maxWidth int) string {
	if val == nil {
		return "-"
	}

	var str string
	switch v := val.(type) {
	case string:
		str = v
	case bool:
		if v {
			str = "yes"
		} else {
			str = "no"
		}
	case float64:
		if v == float64(int64(v)) {
			str = strconv.FormatInt(int64(v), 10)
		} else {
			str = strconv.FormatFloat(v, 'f', -1, 64)
		}
	case map[string]any:
		if typ, ok := v["type"].(string); ok {
			id, _ := v["id"].(string)
			str = typ + "/" + id
			break
		}
		b, _ := json.Marshal(v)
		str = string(b)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = f.formatValue(item, 0)
		}
		str = strings.Join(parts, ",")
	default:
		b, _ := json.Marshal(v)
		str = string(b)
	}

	if maxWidth > 3 && len(str) > maxWidth {
		str = str[:maxWidth-3] + "..."
	}

	return str
}

func init() {
	if err := Register(NewTableFormatter()); err != nil {
		fmt.Printf("failed to register table formatter: %v\n", err)
	}
}
