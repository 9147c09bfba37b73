package jsonapi

// ResourceBuilder provides a fluent API for building raw Resource objects,
// mainly for fixtures and in-memory transports.
type ResourceBuilder struct {
	resource Resource
}

// NewResource creates a new ResourceBuilder with the given type and ID.
// The attributes member starts out present and empty.
func NewResource(resourceType, id string) *ResourceBuilder {
	return &ResourceBuilder{
		resource: Resource{
			Type:       resourceType,
			ID:         id,
			Attributes: make(map[string]any),
		},
	}
}

// Attr adds an attribute to the resource.
func (b *ResourceBuilder) Attr(key string, value any) *ResourceBuilder {
	if b.resource.Attributes == nil {
		b.resource.Attributes = make(map[string]any)
	}
	b.resource.Attributes[key] = value
	return b
}

// Attrs adds multiple attributes to the resource.
func (b *ResourceBuilder) Attrs(attrs map[string]any) *ResourceBuilder {
	for k, v := range attrs {
		// id and type are top-level members
		if k == "id" || k == "type" {
			continue
		}
		b.Attr(k, v)
	}
	return b
}

// NoAttributes drops the attributes member entirely.
func (b *ResourceBuilder) NoAttributes() *ResourceBuilder {
	b.resource.Attributes = nil
	return b
}

// Relationship sets a relationship object as-is.
func (b *ResourceBuilder) Relationship(name string, rel Relationship) *ResourceBuilder {
	if b.resource.Relationships == nil {
		b.resource.Relationships = make(map[string]Relationship)
	}
	b.resource.Relationships[name] = rel
	return b
}

// BelongsTo adds a to-one relationship. An empty relID links to null.
func (b *ResourceBuilder) BelongsTo(name, relType, relID string) *ResourceBuilder {
	if relID == "" {
		return b.Relationship(name, Linkage(nil))
	}
	return b.Relationship(name, Linkage(ResourceIdentifier{Type: relType, ID: relID}))
}

// HasMany adds a to-many relationship.
func (b *ResourceBuilder) HasMany(name string, identifiers ...ResourceIdentifier) *ResourceBuilder {
	if identifiers == nil {
		identifiers = []ResourceIdentifier{}
	}
	return b.Relationship(name, Linkage(identifiers))
}

// HasManyIDs is a convenience for a to-many relationship of one type.
func (b *ResourceBuilder) HasManyIDs(name, relType string, ids ...string) *ResourceBuilder {
	identifiers := make([]ResourceIdentifier, len(ids))
	for i, id := range ids {
		identifiers[i] = ResourceIdentifier{Type: relType, ID: id}
	}
	return b.HasMany(name, identifiers...)
}

// Meta adds metadata to the resource.
func (b *ResourceBuilder) Meta(key string, value any) *ResourceBuilder {
	if b.resource.Meta == nil {
		b.resource.Meta = make(Meta)
	}
	b.resource.Meta[key] = value
	return b
}

// Link sets the self link for the resource.
func (b *ResourceBuilder) Link(self string) *ResourceBuilder {
	b.resource.Links = &ResourceLinks{Self: self}
	return b
}

// Build returns the constructed Resource.
func (b *ResourceBuilder) Build() Resource {
	return b.resource
}

// ToIdentifier returns a ResourceIdentifier for this resource.
func (b *ResourceBuilder) ToIdentifier() ResourceIdentifier {
	return b.resource.Identifier()
}
