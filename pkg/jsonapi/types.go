// Package jsonapi provides JSON:API wire types as seen by a client: the
// top-level document, raw resource objects, relationship linkage and error
// objects. See https://jsonapi.org for the format.
package jsonapi

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Document represents a JSON:API top-level document.
// Primary data is either a single resource (or null) or a collection;
// IsCollection reports which shape the server sent.
type Document struct {
	Data     []Resource `json:"-"`
	Errors   []Error    `json:"errors,omitempty"`
	Meta     Meta       `json:"meta,omitempty"`
	Links    *Links     `json:"links,omitempty"`
	Included []Resource `json:"included,omitempty"`
	JSONAPI  *JSONAPI   `json:"jsonapi,omitempty"`

	collection bool
}

// IsCollection reports whether primary data is an array.
func (d Document) IsCollection() bool {
	return d.collection
}

// One returns the single primary resource, or false when data is null or
// a collection.
func (d Document) One() (Resource, bool) {
	if d.collection || len(d.Data) == 0 {
		return Resource{}, false
	}
	return d.Data[0], true
}

type documentWire struct {
	Data     json.RawMessage `json:"data,omitempty"`
	Errors   []Error         `json:"errors,omitempty"`
	Meta     Meta            `json:"meta,omitempty"`
	Links    *Links          `json:"links,omitempty"`
	Included []Resource      `json:"included,omitempty"`
	JSONAPI  *JSONAPI        `json:"jsonapi,omitempty"`
}

// UnmarshalJSON accepts both single-resource and collection documents.
func (d *Document) UnmarshalJSON(b []byte) error {
	var w documentWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*d = Document{
		Errors:   w.Errors,
		Meta:     w.Meta,
		Links:    w.Links,
		Included: w.Included,
		JSONAPI:  w.JSONAPI,
	}

	data := bytes.TrimSpace(w.Data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '[':
		d.collection = true
		d.Data = []Resource{}
		return json.Unmarshal(data, &d.Data)
	default:
		var r Resource
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		d.Data = []Resource{r}
		return nil
	}
}

// MarshalJSON writes data as an object, null or array depending on shape.
func (d Document) MarshalJSON() ([]byte, error) {
	w := documentWire{
		Errors:   d.Errors,
		Meta:     d.Meta,
		Links:    d.Links,
		Included: d.Included,
		JSONAPI:  d.JSONAPI,
	}
	if len(d.Errors) == 0 {
		var (
			data []byte
			err  error
		)
		switch {
		case d.collection:
			resources := d.Data
			if resources == nil {
				resources = []Resource{}
			}
			data, err = json.Marshal(resources)
		case len(d.Data) == 0:
			data = []byte("null")
		default:
			data, err = json.Marshal(d.Data[0])
		}
		if err != nil {
			return nil, err
		}
		w.Data = data
	}
	return json.Marshal(w)
}

// Resource represents a raw JSON:API resource object.
// Attributes and Relationships are nil when the member is absent.
type Resource struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id"`
	Attributes    map[string]any          `json:"attributes,omitempty"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
	Links         *ResourceLinks          `json:"links,omitempty"`
	Meta          Meta                    `json:"meta,omitempty"`
}

// Identifier returns the resource's linkage.
func (r Resource) Identifier() ResourceIdentifier {
	return ResourceIdentifier{Type: r.Type, ID: r.ID}
}

// ResourceIdentifier represents a resource linkage (type + id only).
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Meta Meta   `json:"meta,omitempty"`
}

// Relationship represents a relationship object. Data holds the decoded
// linkage as generic JSON: nil, map[string]any or []any.
type Relationship struct {
	Data  any
	Links *Links
	Meta  Meta

	hasData bool
}

// Linkage returns a relationship whose data member is set to data.
// Typed identifiers are stored in their generic JSON form.
func Linkage(data any) Relationship {
	return Relationship{Data: normalizeLinkage(data), hasData: true}
}

// HasData reports whether the relationship object carried a data member.
func (r Relationship) HasData() bool {
	return r.hasData
}

type relationshipWire struct {
	Data  any    `json:"data"`
	Links *Links `json:"links,omitempty"`
	Meta  Meta   `json:"meta,omitempty"`
}

// UnmarshalJSON records whether "data" was present. A member that is not a
// JSON object is tolerated and left without data so that the decoder can
// report it as a structural problem instead of failing the whole document.
func (r *Relationship) UnmarshalJSON(b []byte) error {
	*r = Relationship{}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(b, &members); err != nil || members == nil {
		return nil
	}
	var w relationshipWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	_, r.hasData = members["data"]
	r.Data, r.Links, r.Meta = w.Data, w.Links, w.Meta
	return nil
}

// MarshalJSON always emits the data member; JSON:API allows data: null.
func (r Relationship) MarshalJSON() ([]byte, error) {
	return json.Marshal(relationshipWire{Data: normalizeLinkage(r.Data), Links: r.Links, Meta: r.Meta})
}

// normalizeLinkage converts typed identifiers to generic JSON values.
func normalizeLinkage(data any) any {
	switch v := data.(type) {
	case ResourceIdentifier:
		return identifierMap(v)
	case *ResourceIdentifier:
		if v == nil {
			return nil
		}
		return identifierMap(*v)
	case []ResourceIdentifier:
		out := make([]any, len(v))
		for i, id := range v {
			out[i] = identifierMap(id)
		}
		return out
	default:
		return data
	}
}

func identifierMap(id ResourceIdentifier) map[string]any {
	m := map[string]any{"type": id.Type, "id": id.ID}
	if len(id.Meta) > 0 {
		m["meta"] = id.Meta
	}
	return m
}

// Links represents pagination and navigation links.
type Links struct {
	Self    string `json:"self,omitempty"`
	Related string `json:"related,omitempty"`
	First   string `json:"first,omitempty"`
	Last    string `json:"last,omitempty"`
	Prev    string `json:"prev,omitempty"`
	Next    string `json:"next,omitempty"`
}

// ResourceLinks represents links within a resource object.
type ResourceLinks struct {
	Self string `json:"self,omitempty"`
}

// Meta represents arbitrary metadata.
type Meta map[string]any

// JSONAPI represents the JSON:API version object.
type JSONAPI struct {
	Version string `json:"version"`
	Meta    Meta   `json:"meta,omitempty"`
}

// ContentType is the JSON:API media type.
const ContentType = "application/vnd.api+json"

// Version is the JSON:API version advertised in documents.
const Version = "1.1"

// Parse decodes a JSON:API document.
func Parse(b []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}
