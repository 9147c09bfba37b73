package query

import (
	"math"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Reserved parameter names.
const (
	ParamPage    = "page"
	ParamSort    = "sort"
	ParamFilter  = "filter"
	ParamFields  = "fields"
	ParamInclude = "include"
)

var reserved = map[string]bool{
	ParamPage:    true,
	ParamSort:    true,
	ParamFilter:  true,
	ParamFields:  true,
	ParamInclude: true,
}

// PageFunc turns a page value into encoded name=value pairs. JSON:API does
// not standardize pagination, so the strategy is pluggable.
type PageFunc func(page any) []string

// Serializer encodes queries into URL query strings.
type Serializer struct {
	// PageQuery encodes Query.Page. When nil the page value is encoded
	// with the generic rule under the name "page".
	PageQuery PageFunc
}

// Encode returns "" when no parameter serializes, otherwise "?" followed
// by the parameters joined with "&". Values that cannot be serialized are
// dropped. This is a PURE function.
func (s Serializer) Encode(q Query) string {
	pairs := s.Pairs(q)
	if len(pairs) == 0 {
		return ""
	}
	return "?" + strings.Join(pairs, "&")
}

// Pairs returns the encoded name=value pairs in output order: page, sort,
// filter, fields, include, then the remaining parameters by name.
func (s Serializer) Pairs(q Query) []string {
	var pairs []string

	if q.Page != nil {
		if s.PageQuery != nil {
			pairs = append(pairs, s.PageQuery(q.Page)...)
		} else {
			pairs = append(pairs, Encode(ParamPage, q.Page)...)
		}
	}

	if sortValue := encodeSort(q.Sort); sortValue != "" {
		pairs = append(pairs, ParamSort+"="+sortValue)
	}

	if len(q.Filter) > 0 {
		pairs = append(pairs, Encode(ParamFilter, q.Filter)...)
	}
	if len(q.Fields) > 0 {
		pairs = append(pairs, Encode(ParamFields, q.Fields)...)
	}

	if paths := q.Include.Paths(); len(paths) > 0 {
		pairs = append(pairs, ParamInclude+"="+joinEscaped(paths))
	}

	names := make([]string, 0, len(q.Params))
	for name := range q.Params {
		if name != "" && !reserved[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		pairs = append(pairs, Encode(name, q.Params[name])...)
	}

	return pairs
}

// Apply returns a copy of u with its query replaced by the encoded query.
func (s Serializer) Apply(u *url.URL, q Query) *url.URL {
	out := *u
	out.RawQuery = strings.Join(s.Pairs(q), "&")
	out.ForceQuery = false
	return &out
}

func encodeSort(rules []SortRule) string {
	parts := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.Field == "" {
			continue
		}
		parts = append(parts, r.String())
	}
	return joinEscaped(parts)
}

// Encode applies the generic rule to one named parameter:
//   - slices join their scalar elements with ","
//   - maps with string keys expand to name[key]=value, recursively
//   - true emits the bare name
//   - non-empty strings and finite numbers emit name=value
//
// Anything else is dropped.
func Encode(name string, value any) []string {
	return encodeValue(url.QueryEscape(name), reflect.ValueOf(value))
}

func encodeValue(name string, v reflect.Value) []string {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return []string{name}
		}
		return nil
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			if s, ok := scalar(v.Index(i)); ok {
				parts = append(parts, url.QueryEscape(s))
			}
		}
		joined := strings.Join(parts, ",")
		if joined == "" {
			return nil
		}
		return []string{name + "=" + joined}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil
		}
		entries := make(map[string]reflect.Value, v.Len())
		keys := make([]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			entries[k] = iter.Value()
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var pairs []string
		for _, k := range keys {
			pairs = append(pairs, encodeValue(name+"["+url.QueryEscape(k)+"]", entries[k])...)
		}
		return pairs
	default:
		s, ok := scalar(v)
		if !ok || s == "" {
			return nil
		}
		return []string{name + "=" + url.QueryEscape(s)}
	}
}

// scalar formats strings, numbers and booleans. Non-finite numbers are
// not scalars.
func scalar(v reflect.Value) (string, bool) {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "", false
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, v.Type().Bits()), true
	default:
		return "", false
	}
}

func joinEscaped(parts []string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.QueryEscape(p)
	}
	return strings.Join(escaped, ",")
}
