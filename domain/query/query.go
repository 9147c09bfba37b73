// Package query builds JSON:API query strings from structured queries.
package query

import (
	"math"
	"reflect"
	"sort"
	"strings"
)

// Query is the caller-facing query object. Every member is optional.
type Query struct {
	// Page is handed to the serializer's page hook.
	Page any
	// Sort rules in priority order.
	Sort []SortRule
	// Filter is expanded to filter[key]=value pairs.
	Filter map[string]any
	// Fields restricts decoded fields per resource type.
	Fields map[string][]string
	// Include selects relationships to expand.
	Include Include
	// Params holds any other parameters. Reserved names are ignored.
	Params map[string]any
}

// FieldsFor returns the sparse fieldset for typ, if one was requested.
func (q Query) FieldsFor(typ string) ([]string, bool) {
	f, ok := q.Fields[typ]
	return f, ok
}

// SortRule orders results by one field.
type SortRule struct {
	Field      string
	Descending bool
}

// Ascend sorts by field in ascending order.
func Ascend(field string) SortRule {
	return SortRule{Field: field}
}

// Descend sorts by field in descending order.
func Descend(field string) SortRule {
	return SortRule{Field: field, Descending: true}
}

func (r SortRule) String() string {
	if r.Descending {
		return "-" + r.Field
	}
	return r.Field
}

// ParseSort reads a sort parameter such as "name,-age".
func ParseSort(s string) []SortRule {
	var rules []SortRule
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "", part == "-":
			continue
		case strings.HasPrefix(part, "-"):
			rules = append(rules, Descend(part[1:]))
		default:
			rules = append(rules, Ascend(part))
		}
	}
	return rules
}

// Include is a nested selection of relationships to expand. A present key
// means "expand"; its value selects relationships of the related
// resources and may be nil.
type Include map[string]Include

// ParseInclude reads an include parameter such as "country,country.citizens".
func ParseInclude(s string) Include {
	root := Include{}
	for _, path := range strings.Split(s, ",") {
		node := root
		for _, segment := range strings.Split(strings.TrimSpace(path), ".") {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}
			child, ok := node[segment]
			if !ok || child == nil {
				child = Include{}
				node[segment] = child
			}
			node = child
		}
	}
	return root.compact()
}

// compact replaces empty subtrees with nil.
func (i Include) compact() Include {
	if len(i) == 0 {
		return nil
	}
	for k, child := range i {
		i[k] = child.compact()
	}
	return i
}

// Has reports whether name is selected and returns its subtree.
func (i Include) Has(name string) (Include, bool) {
	child, ok := i[name]
	return child, ok
}

// Paths flattens the tree into dotted paths, parents before children and
// siblings sorted. A subtree that contains itself is listed once.
func (i Include) Paths() []string {
	var paths []string
	i.walk("", &paths, make(map[uintptr]bool))
	return paths
}

func (i Include) walk(prefix string, paths *[]string, visiting map[uintptr]bool) {
	if len(i) == 0 {
		return
	}
	id := i.identity()
	if visiting[id] {
		return
	}
	visiting[id] = true
	defer delete(visiting, id)

	keys := make([]string, 0, len(i))
	for k := range i {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		*paths = append(*paths, path)
		i[k].walk(path, paths, visiting)
	}
}

// Depth returns the nesting depth of the tree. A tree that contains
// itself is unbounded and reports math.MaxInt.
func (i Include) Depth() int {
	return i.depth(make(map[uintptr]bool))
}

func (i Include) depth(visiting map[uintptr]bool) int {
	if len(i) == 0 {
		return 0
	}
	id := i.identity()
	if visiting[id] {
		return math.MaxInt
	}
	visiting[id] = true
	defer delete(visiting, id)

	max := 0
	for _, child := range i {
		d := child.depth(visiting)
		if d == math.MaxInt {
			return math.MaxInt
		}
		if d+1 > max {
			max = d + 1
		}
	}
	return max
}

// identity distinguishes subtrees by the map they are backed by.
func (i Include) identity() uintptr {
	return reflect.ValueOf(i).Pointer()
}
