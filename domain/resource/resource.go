package resource

// Identifier is the minimal identity of a resource. Two identifiers are
// equal when type and id are equal.
type Identifier struct {
	Type string `json:"type" yaml:"type"`
	ID   string `json:"id" yaml:"id"`
}

func (i Identifier) String() string {
	return i.Type + "/" + i.ID
}

// Relationship is a decoded relationship value. Identifiers always holds
// the linkage; Resources is filled when the relationship was expanded
// through the include tree.
type Relationship struct {
	Name        string
	ToMany      bool
	Expanded    bool
	Identifiers []Identifier
	Resources   []*Resource
}

// IsNull reports whether a to-one relationship links to nothing.
func (r Relationship) IsNull() bool {
	return !r.ToMany && len(r.Identifiers) == 0
}

// Resource is a decoded, validated resource. It is built once per decode
// and treated as immutable afterwards.
type Resource struct {
	Identifier
	Attributes    map[string]any
	Relationships map[string]Relationship
}

// New creates an empty resource with the given identity.
func New(typ, id string) *Resource {
	return &Resource{
		Identifier:    Identifier{Type: typ, ID: id},
		Attributes:    make(map[string]any),
		Relationships: make(map[string]Relationship),
	}
}

// Attr returns an attribute value and whether the field was decoded.
func (r *Resource) Attr(name string) (any, bool) {
	v, ok := r.Attributes[name]
	return v, ok
}

// AttrString returns a string attribute, or "" when absent, null or not a string.
func (r *Resource) AttrString(name string) string {
	s, _ := r.Attributes[name].(string)
	return s
}

// AttrNumber returns a numeric attribute, or 0.
func (r *Resource) AttrNumber(name string) float64 {
	f, _ := toFloat(r.Attributes[name])
	return f
}

// AttrBool returns a boolean attribute, or false.
func (r *Resource) AttrBool(name string) bool {
	b, _ := r.Attributes[name].(bool)
	return b
}

// Relationship returns a decoded relationship by name.
func (r *Resource) Relationship(name string) (Relationship, bool) {
	rel, ok := r.Relationships[name]
	return rel, ok
}

// One returns the expanded resource of a to-one relationship.
func (r *Resource) One(name string) (*Resource, bool) {
	rel, ok := r.Relationships[name]
	if !ok || !rel.Expanded || rel.ToMany || len(rel.Resources) == 0 {
		return nil, false
	}
	return rel.Resources[0], true
}

// Many returns the expanded resources of a to-many relationship.
func (r *Resource) Many(name string) []*Resource {
	rel, ok := r.Relationships[name]
	if !ok || !rel.Expanded {
		return nil
	}
	return rel.Resources
}

// Ref returns the linkage of a to-one relationship.
func (r *Resource) Ref(name string) (Identifier, bool) {
	rel, ok := r.Relationships[name]
	if !ok || rel.ToMany || len(rel.Identifiers) == 0 {
		return Identifier{}, false
	}
	return rel.Identifiers[0], true
}

// Refs returns the linkage of a relationship.
func (r *Resource) Refs(name string) []Identifier {
	return r.Relationships[name].Identifiers
}

// Map flattens the resource into generic data: identity, attributes and
// relationships side by side. Expanded relationships nest their resources;
// the others carry {type, id} objects or nil. A resource already being
// flattened higher up the tree is emitted as its {type, id} object.
func (r *Resource) Map() map[string]any {
	return r.flatten(make(map[*Resource]bool))
}

func (r *Resource) flatten(seen map[*Resource]bool) map[string]any {
	if r == nil {
		return nil
	}
	if seen[r] {
		return identifierValue(r.Identifier)
	}
	seen[r] = true
	defer delete(seen, r)

	out := make(map[string]any, 2+len(r.Attributes)+len(r.Relationships))
	out["type"] = r.Type
	out["id"] = r.ID
	for k, v := range r.Attributes {
		out[k] = v
	}
	for k, rel := range r.Relationships {
		out[k] = rel.value(seen)
	}
	return out
}

func (rel Relationship) value(seen map[*Resource]bool) any {
	if rel.Expanded {
		if !rel.ToMany {
			if len(rel.Resources) == 0 {
				return nil
			}
			return rel.Resources[0].flatten(seen)
		}
		items := make([]any, len(rel.Resources))
		for i, res := range rel.Resources {
			items[i] = res.flatten(seen)
		}
		return items
	}
	if !rel.ToMany {
		if len(rel.Identifiers) == 0 {
			return nil
		}
		return identifierValue(rel.Identifiers[0])
	}
	items := make([]any, len(rel.Identifiers))
	for i, id := range rel.Identifiers {
		items[i] = identifierValue(id)
	}
	return items
}

func identifierValue(id Identifier) map[string]any {
	return map[string]any{"type": id.Type, "id": id.ID}
}
