package resource

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validator is a pure predicate over a decoded JSON value
// (string, float64, bool, nil, []any or map[string]any).
type Validator func(value any) bool

// Any accepts every value.
func Any(any) bool { return true }

// String accepts JSON strings.
func String(value any) bool {
	_, ok := value.(string)
	return ok
}

// NonEmptyString accepts strings with at least one non-space character.
func NonEmptyString(value any) bool {
	s, ok := value.(string)
	return ok && validation.Validate(strings.TrimSpace(s), validation.Required) == nil
}

// Number accepts finite JSON numbers.
func Number(value any) bool {
	f, ok := toFloat(value)
	return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Integer accepts JSON numbers without a fractional part.
func Integer(value any) bool {
	f, ok := toFloat(value)
	return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
}

// Bool accepts JSON booleans.
func Bool(value any) bool {
	_, ok := value.(bool)
	return ok
}

// Object accepts JSON objects.
func Object(value any) bool {
	_, ok := value.(map[string]any)
	return ok
}

// dottedDomain requires the part after "@" to have a top-level label.
var dottedDomain = regexp.MustCompile(`@[^@]+\.[^@.]+$`)

// Email accepts bare mail addresses with a dotted domain.
func Email(value any) bool {
	return check(value, validation.Required, is.EmailFormat, validation.Match(dottedDomain))
}

// URL accepts absolute URLs with a scheme and a host.
func URL(value any) bool {
	return check(value, validation.Required, is.RequestURL, is.URL)
}

// UUID accepts canonical UUID strings.
func UUID(value any) bool {
	return check(value, validation.Required, is.UUID)
}

// Timestamp accepts RFC 3339 date-time strings.
func Timestamp(value any) bool {
	return check(value, validation.Required, validation.Date(time.RFC3339))
}

// check reports whether value is a string passing every rule.
func check(value any, rules ...validation.Rule) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return validation.Validate(s, rules...) == nil
}

// ArrayOf accepts arrays whose elements all satisfy v.
func ArrayOf(v Validator) Validator {
	return func(value any) bool {
		items, ok := value.([]any)
		if !ok {
			return false
		}
		for _, item := range items {
			if !v(item) {
				return false
			}
		}
		return true
	}
}

// OneOf accepts strings from a fixed set.
func OneOf(values ...string) Validator {
	elements := make([]any, len(values))
	allowEmpty := false
	for i, v := range values {
		elements[i] = v
		allowEmpty = allowEmpty || v == ""
	}
	in := validation.In(elements...)
	return func(value any) bool {
		return check(value, validation.Required.When(!allowEmpty), in)
	}
}

var namedValidators = map[string]Validator{
	"any":       Any,
	"string":    String,
	"nonempty":  NonEmptyString,
	"number":    Number,
	"integer":   Integer,
	"bool":      Bool,
	"object":    Object,
	"email":     Email,
	"url":       URL,
	"uuid":      UUID,
	"timestamp": Timestamp,
	"strings":   ArrayOf(String),
	"numbers":   ArrayOf(Number),
}

// ValidatorByName returns a built-in validator by its configuration name.
func ValidatorByName(name string) (Validator, bool) {
	v, ok := namedValidators[strings.ToLower(name)]
	return v, ok
}

// ValidatorNames lists the configuration names of built-in validators.
func ValidatorNames() []string {
	names := make([]string, 0, len(namedValidators))
	for name := range namedValidators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
