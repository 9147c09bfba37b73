// Package decode turns raw JSON:API resource objects into validated,
// relationship-resolved resources.
//
// Decoding never fails fast. Every problem found in a call tree is
// accumulated and returned together, so a caller sees everything wrong with
// a payload in one pass.
package decode

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artpar/jsonapiclient/domain/query"
	"github.com/artpar/jsonapiclient/domain/resource"
	"github.com/artpar/jsonapiclient/domain/result"
	"github.com/artpar/jsonapiclient/pkg/jsonapi"
)

// DefaultMaxDepth bounds relationship expansion when no limit is given.
const DefaultMaxDepth = 32

// Decoder decodes raw resources against a schema registry.
type Decoder struct {
	schemas  *resource.Registry
	maxDepth int
	logger   zerolog.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxDepth limits how many relationship levels are expanded below a
// primary resource. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxDepth = n
		}
	}
}

// WithLogger sets the decoder's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Decoder) {
		d.logger = logger
	}
}

// New creates a decoder.
func New(schemas *resource.Registry, opts ...Option) *Decoder {
	d := &Decoder{
		schemas:  schemas,
		maxDepth: DefaultMaxDepth,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MaxDepth returns the expansion limit.
func (d *Decoder) MaxDepth() int {
	return d.maxDepth
}

// DecodeResource decodes raw as a resource of type typ.
//
// fields selects, per type, the fields to decode; a type without an entry
// decodes every declared field. include selects the relationships to
// expand through pool. A nil pool is treated as empty.
func (d *Decoder) DecodeResource(typ string, raw jsonapi.Resource, pool *Pool, fields map[string][]string, include query.Include) result.Result[*resource.Resource] {
	if pool == nil {
		pool = NewPool()
	}
	d.warnDepth(typ, include)
	return d.decode(typ, raw, pool, fields, include, 0)
}

// DecodeDocument decodes every primary resource of doc in order. All
// elements share one pool seeded with the document's included resources.
func (d *Decoder) DecodeDocument(typ string, doc jsonapi.Document, fields map[string][]string, include query.Include) []result.Result[*resource.Resource] {
	d.warnDepth(typ, include)
	pool := NewPool(doc.Included...)
	results := make([]result.Result[*resource.Resource], len(doc.Data))
	failed := 0
	for i, raw := range doc.Data {
		results[i] = d.decode(typ, raw, pool, fields, include, 0)
		if !results[i].IsOk() {
			failed++
		}
	}

	d.logger.Debug().
		Str("type", typ).
		Int("resources", len(results)).
		Int("failed", failed).
		Int("pool", pool.Len()).
		Msg("decoded document")

	return results
}

// warnDepth logs when include asks for more levels than the decoder expands.
func (d *Decoder) warnDepth(typ string, include query.Include) {
	depth := include.Depth()
	if depth <= d.maxDepth {
		return
	}
	ev := d.logger.Warn().Str("type", typ).Int("max_depth", d.maxDepth)
	if depth == math.MaxInt {
		ev = ev.Bool("cyclic", true)
	} else {
		ev = ev.Int("include_depth", depth)
	}
	ev.Msg("include tree is deeper than the decoder expands")
}

// call carries the state of one decodeResource invocation.
type call struct {
	raw  jsonapi.Resource
	errs Errors
}

func (c *call) fail(kind Kind, code, field, pointer, format string, args ...any) {
	c.errs = append(c.errs, &Error{
		Kind:    kind,
		Code:    code,
		Type:    c.raw.Type,
		ID:      c.raw.ID,
		Field:   field,
		Pointer: pointer,
		Message: fmt.Sprintf(format, args...),
	})
}

func (d *Decoder) decode(typ string, raw jsonapi.Resource, pool *Pool, fields map[string][]string, include query.Include, depth int) result.Result[*resource.Resource] {
	c := &call{raw: raw}

	schema, err := d.schemas.Lookup(typ)
	if err != nil {
		c.fail(KindStructural, CodeUnknownType, "", "/type", "%v", err)
		return result.Err[*resource.Resource](c.errs)
	}
	if raw.Type != typ {
		c.fail(KindStructural, CodeTypeMismatch, "", "/type", "expected type %q, got %q", typ, raw.Type)
		return result.Err[*resource.Resource](c.errs)
	}

	pool.Push(raw)

	selected := schema.Select(selection(fields, typ))
	attrsMissing := raw.Attributes == nil && needs(selected, resource.RootAttributes)
	relsMissing := raw.Relationships == nil && needs(selected, resource.RootRelationships)
	if attrsMissing {
		c.fail(KindStructural, CodeMissingMember, "", "/attributes", "resource has no attributes member")
	}
	if relsMissing {
		c.fail(KindStructural, CodeMissingMember, "", "/relationships", "resource has no relationships member")
	}

	out := resource.New(raw.Type, raw.ID)
	for _, f := range selected {
		switch f.Kind {
		case resource.RequiredAttribute, resource.OptionalAttribute:
			if !attrsMissing {
				d.decodeAttribute(c, f, out)
			}
		case resource.ToOne, resource.ToMany:
			if !relsMissing {
				d.decodeRelationship(c, f, out, pool, fields, include, depth)
			}
		}
	}

	if len(c.errs) > 0 {
		return result.Err[*resource.Resource](c.errs)
	}
	return result.Ok(out)
}

func (d *Decoder) decodeAttribute(c *call, f resource.Field, out *resource.Resource) {
	value := c.raw.Attributes[f.Name]
	if !f.Valid(value) {
		ptr := pointer("attributes", f.Name)
		if value == nil {
			c.fail(KindValidation, CodeRequired, f.Name, ptr, "required attribute is missing or null")
		} else {
			c.fail(KindValidation, CodeInvalid, f.Name, ptr, "invalid value %v", value)
		}
		return
	}
	out.Attributes[f.Name] = value
}

func (d *Decoder) decodeRelationship(c *call, f resource.Field, out *resource.Resource, pool *Pool, fields map[string][]string, include query.Include, depth int) {
	raw, ok := c.raw.Relationships[f.Name]
	if !ok || !raw.HasData() {
		c.fail(KindStructural, CodeMissingMember, f.Name, pointer("relationships", f.Name, "data"), "relationship has no data member")
		return
	}
	if !f.Valid(raw.Data) {
		ptr := pointer("relationships", f.Name, "data")
		if f.IsToMany() {
			c.fail(KindValidation, CodeInvalid, f.Name, ptr, "linkage must be an array of %q identifiers", f.Related)
		} else {
			c.fail(KindValidation, CodeInvalid, f.Name, ptr, "linkage must be null or a %q identifier", f.Related)
		}
		return
	}

	rel := resource.Relationship{
		Name:        f.Name,
		ToMany:      f.IsToMany(),
		Identifiers: linkage(raw.Data),
	}

	sub, expand := include.Has(f.Name)
	if !expand || raw.Data == nil {
		out.Relationships[f.Name] = rel
		return
	}

	if depth+1 > d.maxDepth {
		c.fail(KindDepth, CodeMaxDepth, f.Name, pointer("relationships", f.Name), "expansion exceeds maximum depth %d", d.maxDepth)
		out.Relationships[f.Name] = rel
		return
	}

	rel.Expanded = true
	rel.Resources = make([]*resource.Resource, 0, len(rel.Identifiers))
	for i, id := range rel.Identifiers {
		entry, found := pool.Find(id.Type, id.ID)
		if !found {
			ptr := pointer("relationships", f.Name, "data")
			if rel.ToMany {
				ptr = fmt.Sprintf("%s/%d", ptr, i)
			}
			c.fail(KindReferential, CodeNotIncluded, f.Name, ptr, "%s is not in the included resources", id)
			d.logger.Warn().
				Str("type", c.raw.Type).
				Str("id", c.raw.ID).
				Str("relationship", f.Name).
				Str("missing", id.String()).
				Msg("relationship target not included")
			continue
		}

		res, err := d.decode(f.Related, entry, pool, fields, sub, depth+1).Unwrap()
		if err != nil {
			if child, ok := AsErrors(err); ok {
				c.errs = append(c.errs, child...)
			}
			continue
		}
		rel.Resources = append(rel.Resources, res)
	}
	out.Relationships[f.Name] = rel
}

// selection returns the requested field names for typ, or nil for all.
func selection(fields map[string][]string, typ string) []string {
	names, ok := fields[typ]
	if !ok {
		return nil
	}
	if names == nil {
		return []string{}
	}
	return names
}

func needs(fields []resource.Field, root resource.Root) bool {
	for _, f := range fields {
		if f.Root() == root {
			return true
		}
	}
	return false
}

// linkage reads validated relationship data as identifiers.
func linkage(data any) []resource.Identifier {
	switch v := data.(type) {
	case map[string]any:
		id, _ := resource.AsIdentifier(v)
		return []resource.Identifier{id}
	case []any:
		ids := make([]resource.Identifier, 0, len(v))
		for _, item := range v {
			id, _ := resource.AsIdentifier(item)
			ids = append(ids, id)
		}
		return ids
	default:
		return nil
	}
}

// pointer builds a JSON pointer relative to the resource object.
func pointer(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteByte('/')
		p = strings.ReplaceAll(p, "~", "~0")
		b.WriteString(strings.ReplaceAll(p, "/", "~1"))
	}
	return b.String()
}
