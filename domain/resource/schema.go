package resource

import (
	"errors"
	"fmt"
)

// Schema is the field map of one resource type. Fields keep their
// declaration order, which is also the decode order.
type Schema struct {
	typ    string
	fields []Field
	index  map[string]int
}

// Type returns the resource type tag.
func (s Schema) Type() string {
	return s.typ
}

// Fields returns the declared fields in order.
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Names returns the declared field names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of declared fields.
func (s Schema) Len() int {
	return len(s.fields)
}

// Select returns the fields to decode for a sparse fieldset. A nil
// selection means every declared field. Order follows the schema.
func (s Schema) Select(names []string) []Field {
	if names == nil {
		return s.Fields()
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	out := make([]Field, 0, len(names))
	for _, f := range s.fields {
		if wanted[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// SchemaBuilder registers fields for one resource type. Registration
// errors are collected and reported by Build.
type SchemaBuilder struct {
	schema Schema
	errs   []error
}

// Define starts a schema for the given resource type.
func Define(typ string) *SchemaBuilder {
	return &SchemaBuilder{
		schema: Schema{typ: typ, index: make(map[string]int)},
	}
}

// Register adds f under name. A non-empty f.Name must match name.
func (b *SchemaBuilder) Register(name string, f Field) *SchemaBuilder {
	if f.Name != "" && f.Name != name {
		b.errs = append(b.errs, fmt.Errorf("field %q registered under name %q", f.Name, name))
		return b
	}
	f.Name = name
	if err := f.validate(); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	if _, exists := b.schema.index[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("field %q already registered", name))
		return b
	}
	b.schema.index[name] = len(b.schema.fields)
	b.schema.fields = append(b.schema.fields, f)
	return b
}

// Required registers a required attribute.
func (b *SchemaBuilder) Required(name string, v Validator) *SchemaBuilder {
	return b.Register(name, Required(name, v))
}

// Optional registers an optional attribute.
func (b *SchemaBuilder) Optional(name string, v Validator) *SchemaBuilder {
	return b.Register(name, Optional(name, v))
}

// ToOne registers a to-one relationship.
func (b *SchemaBuilder) ToOne(name, related string) *SchemaBuilder {
	return b.Register(name, HasOne(name, related))
}

// ToMany registers a to-many relationship.
func (b *SchemaBuilder) ToMany(name, related string) *SchemaBuilder {
	return b.Register(name, HasMany(name, related))
}

// Build returns the finished schema.
func (b *SchemaBuilder) Build() (Schema, error) {
	if b.schema.typ == "" {
		return Schema{}, errors.New("schema type is required")
	}
	if len(b.errs) > 0 {
		return Schema{}, fmt.Errorf("schema %q: %w", b.schema.typ, errors.Join(b.errs...))
	}
	return b.schema, nil
}

// MustBuild is like Build but panics on a declaration error.
func (b *SchemaBuilder) MustBuild() Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
