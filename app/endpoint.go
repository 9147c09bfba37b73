package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-multierror"

	"github.com/artpar/jsonapiclient/domain/decode"
	"github.com/artpar/jsonapiclient/domain/query"
	"github.com/artpar/jsonapiclient/domain/resource"
	"github.com/artpar/jsonapiclient/pkg/jsonapi"
	"github.com/artpar/jsonapiclient/ports"
)

// Endpoint is one collection endpoint and its items, serving resources of
// a single type.
type Endpoint struct {
	client *Client
	path   string
	typ    string
}

// Path returns the endpoint path, always with a leading slash.
func (e *Endpoint) Path() string { return e.path }

// Type returns the resource type served by the endpoint.
func (e *Endpoint) Type() string { return e.typ }

// Page is a decoded collection response.
type Page struct {
	// Resources holds the elements that decoded successfully, in document
	// order.
	Resources []*resource.Resource
	Links     *jsonapi.Links
	Meta      jsonapi.Meta
}

// Next returns the next-page link, if the server sent one.
func (p *Page) Next() (string, bool) {
	if p.Links == nil || p.Links.Next == "" {
		return "", false
	}
	return p.Links.Next, true
}

// ElementError reports the decode failure of one collection element.
type ElementError struct {
	Index      int
	Identifier resource.Identifier
	Errs       decode.Errors
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element %d (%s): %v", e.Index, e.Identifier, e.Errs)
}

// Unwrap exposes the decode errors.
func (e *ElementError) Unwrap() error {
	return e.Errs
}

// ElementErrors extracts the element failures from a Fetch or Decode error.
func ElementErrors(err error) []*ElementError {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		var single *ElementError
		if errors.As(err, &single) {
			return []*ElementError{single}
		}
		return nil
	}
	var out []*ElementError
	for _, e := range merr.Errors {
		var ee *ElementError
		if errors.As(e, &ee) {
			out = append(out, ee)
		}
	}
	return out
}

// ErrInvalidID is returned for ids that cannot name an item: the empty
// string, "." and "..".
var ErrInvalidID = errors.New("invalid resource id")

// CheckID reports whether id can be used as an item path segment.
func CheckID(id string) error {
	switch id {
	case "", ".", "..":
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// URL returns the request URL for the collection (id == "") or one item.
// Ids rejected by CheckID must not be passed.
func (e *Endpoint) URL(id string, q query.Query) *url.URL {
	u := e.client.baseURL.JoinPath(e.path)
	if id != "" {
		u = u.JoinPath(url.PathEscape(id))
	}
	return e.client.serializer.Apply(u, q)
}

// Get fetches and decodes one resource. Decode failures are returned as
// decode.Errors; server errors as *jsonapi.ErrorResponse.
func (e *Endpoint) Get(ctx context.Context, id string, q query.Query) (*resource.Resource, error) {
	if err := CheckID(id); err != nil {
		return nil, fmt.Errorf("get %s: %w", e.path, err)
	}
	doc, err := e.request(ctx, e.URL(id, q))
	if err != nil {
		e.client.record(e, "get", "transport_error")
		return nil, fmt.Errorf("get %s/%s: %w", e.path, id, err)
	}

	raw, err := e.single(doc)
	if err != nil {
		e.client.record(e, "get", "decode_error")
		return nil, fmt.Errorf("get %s/%s: %w", e.path, id, err)
	}

	res, err := e.client.decoder.DecodeResource(e.typ, raw, decode.NewPool(doc.Included...), q.Fields, q.Include).Unwrap()
	if err != nil {
		errs, _ := decode.AsErrors(err)
		e.client.recordDecode(e.typ, 0, errs)
		e.client.record(e, "get", "decode_error")
		e.client.logger.Warn().
			Str("endpoint", e.path).
			Str("id", id).
			Int("errors", len(errs)).
			Msg("resource failed to decode")
		return nil, fmt.Errorf("get %s/%s: %w", e.path, id, err)
	}

	e.client.recordDecode(e.typ, 1, nil)
	e.client.record(e, "get", "ok")
	return res, nil
}

// Fetch fetches and decodes the collection. Elements decode independently:
// when some fail, the error combines one *ElementError per failure and the
// returned page still holds every element that decoded.
func (e *Endpoint) Fetch(ctx context.Context, q query.Query) (*Page, error) {
	doc, err := e.request(ctx, e.URL("", q))
	if err != nil {
		e.client.record(e, "fetch", "transport_error")
		return nil, fmt.Errorf("fetch %s: %w", e.path, err)
	}

	page, err := e.Decode(doc, q)
	if err != nil {
		e.client.record(e, "fetch", "decode_error")
		return page, fmt.Errorf("fetch %s: %w", e.path, err)
	}
	e.client.record(e, "fetch", "ok")
	return page, nil
}

// Decode decodes an already fetched document. Single-resource documents
// are treated as a one-element collection.
func (e *Endpoint) Decode(doc jsonapi.Document, q query.Query) (*Page, error) {
	page := &Page{
		Resources: make([]*resource.Resource, 0, len(doc.Data)),
		Links:     doc.Links,
		Meta:      doc.Meta,
	}

	var (
		result *multierror.Error
		all    decode.Errors
	)
	for i, r := range e.client.decoder.DecodeDocument(e.typ, doc, q.Fields, q.Include) {
		res, err := r.Unwrap()
		if err != nil {
			errs, _ := decode.AsErrors(err)
			all = append(all, errs...)
			raw := doc.Data[i]
			result = multierror.Append(result, &ElementError{
				Index:      i,
				Identifier: resource.Identifier{Type: raw.Type, ID: raw.ID},
				Errs:       errs,
			})
			continue
		}
		page.Resources = append(page.Resources, res)
	}

	e.client.recordDecode(e.typ, len(page.Resources), all)
	if err := result.ErrorOrNil(); err != nil {
		e.client.logger.Warn().
			Str("endpoint", e.path).
			Int("decoded", len(page.Resources)).
			Int("failed", len(result.Errors)).
			Msg("collection decoded with failures")
		return page, err
	}
	return page, nil
}

func (e *Endpoint) request(ctx context.Context, u *url.URL) (jsonapi.Document, error) {
	e.client.logger.Debug().
		Str("endpoint", e.path).
		Str("url", u.Redacted()).
		Msg("requesting")

	return e.client.transport.HandleRequest(ctx, u, ports.RequestOptions{
		Method:  http.MethodGet,
		Headers: e.client.headers,
	})
}

// single returns the primary resource of an item document.
func (e *Endpoint) single(doc jsonapi.Document) (jsonapi.Resource, error) {
	if doc.IsCollection() {
		return jsonapi.Resource{}, decode.Errors{{
			Kind:    decode.KindStructural,
			Code:    decode.CodeDocument,
			Type:    e.typ,
			Pointer: "/data",
			Message: "expected a single resource, got a collection",
		}}
	}
	raw, ok := doc.One()
	if !ok {
		return jsonapi.Resource{}, decode.Errors{{
			Kind:    decode.KindStructural,
			Code:    decode.CodeDocument,
			Type:    e.typ,
			Pointer: "/data",
			Message: "document has no primary data",
		}}
	}
	return raw, nil
}
