package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/jsonapiclient/domain/query"
)

// queryOptions holds the query flags shared by get, fetch, decode and query.
type queryOptions struct {
	include string
	fields  []string
	sort    string
	filter  []string
	page    []string
	params  []string
}

var qopts queryOptions

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&qopts.include, "include", "", "relationship paths to expand (e.g. capital,capital.country)")
	cmd.Flags().StringArrayVar(&qopts.fields, "fields", nil, "sparse fieldset type=a,b (repeatable)")
	cmd.Flags().StringVar(&qopts.sort, "sort", "", "sort fields, prefix - for descending (e.g. name,-population)")
	cmd.Flags().StringArrayVar(&qopts.filter, "filter", nil, "filter key=value; dots nest keys (repeatable)")
	cmd.Flags().StringArrayVar(&qopts.page, "page", nil, "page key=value (repeatable)")
	cmd.Flags().StringArrayVar(&qopts.params, "param", nil, "extra query parameter key=value (repeatable)")
}

// build turns the flags into a query.
func (o queryOptions) build() (query.Query, error) {
	q := query.Query{
		Sort:    query.ParseSort(o.sort),
		Include: query.ParseInclude(o.include),
	}

	if len(o.fields) > 0 {
		q.Fields = make(map[string][]string, len(o.fields))
		for _, f := range o.fields {
			typ, list, err := splitPair("fields", f)
			if err != nil {
				return query.Query{}, err
			}
			names := []string{}
			for _, name := range strings.Split(list, ",") {
				if name = strings.TrimSpace(name); name != "" {
					names = append(names, name)
				}
			}
			q.Fields[typ] = append(q.Fields[typ], names...)
		}
	}

	var err error
	if q.Filter, err = pairs("filter", o.filter); err != nil {
		return query.Query{}, err
	}
	page, err := pairs("page", o.page)
	if err != nil {
		return query.Query{}, err
	}
	if page != nil {
		q.Page = page
	}
	if q.Params, err = pairs("param", o.params); err != nil {
		return query.Query{}, err
	}
	return q, nil
}

// pairs parses key=value flags into a nested map. Repeated keys collect
// their values in order.
func pairs(flag string, values []string) (map[string]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]any)
	for _, kv := range values {
		key, value, err := splitPair(flag, kv)
		if err != nil {
			return nil, err
		}
		if err := set(out, strings.Split(key, "."), value); err != nil {
			return nil, fmt.Errorf("--%s %s: %w", flag, kv, err)
		}
	}
	return out, nil
}

func set(m map[string]any, path []string, value string) error {
	key := path[0]
	if len(path) > 1 {
		child, ok := m[key].(map[string]any)
		if !ok {
			if _, exists := m[key]; exists {
				return fmt.Errorf("%s is both a value and a group", key)
			}
			child = make(map[string]any)
			m[key] = child
		}
		return set(child, path[1:], value)
	}

	switch existing := m[key].(type) {
	case nil:
		m[key] = value
	case string:
		m[key] = []string{existing, value}
	case []string:
		m[key] = append(existing, value)
	default:
		return fmt.Errorf("%s is both a group and a value", key)
	}
	return nil
}

func splitPair(flag, kv string) (string, string, error) {
	key, value, ok := strings.Cut(kv, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("--%s expects key=value, got %q", flag, kv)
	}
	return key, value, nil
}
