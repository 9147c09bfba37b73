package decode

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a decode error.
type Kind string

const (
	// KindStructural: the raw payload lacks an expected member or has the
	// wrong shape.
	KindStructural Kind = "structural"
	// KindValidation: a present value fails its field's predicate, or a
	// required attribute is missing.
	KindValidation Kind = "validation"
	// KindReferential: a relationship identifier has no entry in the
	// included pool.
	KindReferential Kind = "referential"
	// KindDepth: expansion stopped at the maximum depth.
	KindDepth Kind = "depth"
)

// Error codes.
const (
	CodeMissingMember = "missing_member"
	CodeTypeMismatch  = "type_mismatch"
	CodeUnknownType   = "unknown_type"
	CodeRequired      = "required"
	CodeInvalid       = "invalid"
	CodeNotIncluded   = "not_included"
	CodeMaxDepth      = "max_depth"
	CodeDocument      = "document_shape"
)

// Error describes one problem found while decoding a resource.
type Error struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Code    string `json:"code" yaml:"code"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
	Pointer string `json:"pointer,omitempty" yaml:"pointer,omitempty"`
	Message string `json:"message" yaml:"message"`
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Type != "" {
		fmt.Fprintf(&b, " %s/%s", e.Type, e.ID)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Errors is the accumulated error list of one decode call tree.
type Errors []*Error

// maxListed bounds how many errors Error() spells out.
const maxListed = 3

func (errs Errors) Error() string {
	switch len(errs) {
	case 0:
		return "no decode errors"
	case 1:
		return errs[0].Error()
	}
	parts := make([]string, 0, maxListed)
	for i, e := range errs {
		if i == maxListed {
			break
		}
		parts = append(parts, e.Error())
	}
	msg := fmt.Sprintf("%d decode errors: %s", len(errs), strings.Join(parts, "; "))
	if len(errs) > maxListed {
		msg += fmt.Sprintf("; and %d more", len(errs)-maxListed)
	}
	return msg
}

// HasKind reports whether any error is of kind k.
func (errs Errors) HasKind(k Kind) bool {
	for _, e := range errs {
		if e.Kind == k {
			return true
		}
	}
	return false
}

// ByKind returns the errors of kind k.
func (errs Errors) ByKind(k Kind) Errors {
	var out Errors
	for _, e := range errs {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Counts returns the number of errors per kind.
func (errs Errors) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range errs {
		counts[e.Kind]++
	}
	return counts
}

// AsErrors extracts decode errors from err.
func AsErrors(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	var single *Error
	if errors.As(err, &single) {
		return Errors{single}, true
	}
	return nil, false
}

// HasKind reports whether err carries a decode error of kind k.
func HasKind(err error, k Kind) bool {
	errs, ok := AsErrors(err)
	return ok && errs.HasKind(k)
}
