// Package resource defines resource schemas and the decoded resource values
// produced from JSON:API documents.
package resource

import "fmt"

// Kind tags the variant of a Field.
type Kind int

const (
	// RequiredAttribute must be present, non-null and valid.
	RequiredAttribute Kind = iota + 1
	// OptionalAttribute may be absent or null; otherwise it must be valid.
	OptionalAttribute
	// ToOne links to zero or one resource of the related type.
	ToOne
	// ToMany links to a list of resources of the related type.
	ToMany
)

func (k Kind) String() string {
	switch k {
	case RequiredAttribute:
		return "requiredAttribute"
	case OptionalAttribute:
		return "optionalAttribute"
	case ToOne:
		return "toOne"
	case ToMany:
		return "toMany"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Root is the resource object member a field is read from.
type Root string

const (
	RootAttributes    Root = "attributes"
	RootRelationships Root = "relationships"
)

// Field describes one named field of a resource type.
type Field struct {
	Name string
	Kind Kind

	// Related is the target resource type of a relationship field.
	Related string

	// Validate checks a present, non-null attribute value.
	// Relationship fields ignore it.
	Validate Validator
}

// Required declares a required attribute.
func Required(name string, v Validator) Field {
	return Field{Name: name, Kind: RequiredAttribute, Validate: v}
}

// Optional declares an optional attribute.
func Optional(name string, v Validator) Field {
	return Field{Name: name, Kind: OptionalAttribute, Validate: v}
}

// HasOne declares a to-one relationship to resources of type related.
func HasOne(name, related string) Field {
	return Field{Name: name, Kind: ToOne, Related: related}
}

// HasMany declares a to-many relationship to resources of type related.
func HasMany(name, related string) Field {
	return Field{Name: name, Kind: ToMany, Related: related}
}

// Root returns the member this field lives under.
func (f Field) Root() Root {
	if f.IsRelationship() {
		return RootRelationships
	}
	return RootAttributes
}

func (f Field) IsAttribute() bool {
	return f.Kind == RequiredAttribute || f.Kind == OptionalAttribute
}

func (f Field) IsRelationship() bool {
	return f.Kind == ToOne || f.Kind == ToMany
}

func (f Field) IsRequiredAttribute() bool { return f.Kind == RequiredAttribute }
func (f Field) IsOptionalAttribute() bool { return f.Kind == OptionalAttribute }
func (f Field) IsToOne() bool             { return f.Kind == ToOne }
func (f Field) IsToMany() bool            { return f.Kind == ToMany }

// Valid reports whether value is acceptable for the field. For attributes
// value is the decoded attribute (nil when absent or null); for
// relationships it is the relationship's data member.
func (f Field) Valid(value any) bool {
	switch f.Kind {
	case RequiredAttribute:
		return value != nil && f.check(value)
	case OptionalAttribute:
		return value == nil || f.check(value)
	case ToOne:
		if value == nil {
			return true
		}
		id, ok := AsIdentifier(value)
		return ok && id.Type == f.Related
	case ToMany:
		items, ok := value.([]any)
		if !ok {
			return false
		}
		for _, item := range items {
			id, ok := AsIdentifier(item)
			if !ok || id.Type != f.Related {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (f Field) check(value any) bool {
	if f.Validate == nil {
		return true
	}
	return f.Validate(value)
}

// validate reports a problem with the declaration itself.
func (f Field) validate() error {
	if f.Name == "" {
		return fmt.Errorf("field name is required")
	}
	switch f.Kind {
	case RequiredAttribute, OptionalAttribute:
		if f.Related != "" {
			return fmt.Errorf("field %q: attributes cannot name a related type", f.Name)
		}
	case ToOne, ToMany:
		if f.Related == "" {
			return fmt.Errorf("field %q: relationship requires a related type", f.Name)
		}
	default:
		return fmt.Errorf("field %q: unknown kind %v", f.Name, f.Kind)
	}
	return nil
}

// AsIdentifier reads a decoded JSON linkage object. It requires string
// "type" and "id" members.
func AsIdentifier(value any) (Identifier, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return Identifier{}, false
	}
	typ, ok := m["type"].(string)
	if !ok || typ == "" {
		return Identifier{}, false
	}
	id, ok := m["id"].(string)
	if !ok {
		return Identifier{}, false
	}
	return Identifier{Type: typ, ID: id}, true
}
