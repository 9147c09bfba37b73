package jsonapi

// DocumentBuilder provides a fluent API for building Document objects.
type DocumentBuilder struct {
	doc Document
}

// NewDocument creates a new DocumentBuilder. Primary data starts out null.
func NewDocument() *DocumentBuilder {
	return &DocumentBuilder{}
}

// DataResource sets a single resource as the primary data.
func (b *DocumentBuilder) DataResource(r Resource) *DocumentBuilder {
	b.doc.Data = []Resource{r}
	b.doc.collection = false
	return b
}

// DataCollection sets a collection of resources as the primary data.
func (b *DocumentBuilder) DataCollection(resources ...Resource) *DocumentBuilder {
	if resources == nil {
		resources = []Resource{}
	}
	b.doc.Data = resources
	b.doc.collection = true
	return b
}

// DataNull sets the primary data to null.
func (b *DocumentBuilder) DataNull() *DocumentBuilder {
	b.doc.Data = nil
	b.doc.collection = false
	return b
}

// Errors sets the errors array. Errors and data are mutually exclusive.
func (b *DocumentBuilder) Errors(errors ...Error) *DocumentBuilder {
	b.doc.Errors = errors
	b.doc.Data = nil
	b.doc.collection = false
	return b
}

// Meta adds a metadata entry to the document.
func (b *DocumentBuilder) Meta(key string, value any) *DocumentBuilder {
	if b.doc.Meta == nil {
		b.doc.Meta = make(Meta)
	}
	b.doc.Meta[key] = value
	return b
}

// Links sets the top-level links.
func (b *DocumentBuilder) Links(links *Links) *DocumentBuilder {
	b.doc.Links = links
	return b
}

// Include adds resources to the included section for compound documents.
func (b *DocumentBuilder) Include(resources ...Resource) *DocumentBuilder {
	b.doc.Included = append(b.doc.Included, resources...)
	return b
}

// JSONAPI sets the JSON:API version object.
func (b *DocumentBuilder) JSONAPI() *DocumentBuilder {
	b.doc.JSONAPI = &JSONAPI{Version: Version}
	return b
}

// Build returns the constructed Document.
func (b *DocumentBuilder) Build() Document {
	return b.doc
}

// NewSingleResourceDocument is a convenience for a document with one resource.
func NewSingleResourceDocument(r Resource, included ...Resource) Document {
	return NewDocument().DataResource(r).Include(included...).Build()
}

// NewCollectionDocument is a convenience for a collection document.
func NewCollectionDocument(resources []Resource, included ...Resource) Document {
	return NewDocument().DataCollection(resources...).Include(included...).Build()
}

// NewErrorDocument is a convenience for an error document.
func NewErrorDocument(errors ...Error) Document {
	return NewDocument().Errors(errors...).Build()
}
