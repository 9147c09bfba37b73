// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/artpar/jsonapiclient/pkg/jsonapi"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// External Service Ports
// -----------------------------------------------------------------------------

// RequestOptions describes one transport request.
type RequestOptions struct {
	// Method defaults to GET.
	Method string
	// Headers are added to the transport's own headers.
	Headers http.Header
}

// Transport performs JSON:API requests. It is the only seam through which
// the client reaches the network.
type Transport interface {
	// HandleRequest fetches u and returns the parsed document. A server
	// error document is returned as *jsonapi.ErrorResponse.
	HandleRequest(ctx context.Context, u *url.URL, opts RequestOptions) (jsonapi.Document, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, u *url.URL, opts RequestOptions) (jsonapi.Document, error)

// HandleRequest calls f.
func (f TransportFunc) HandleRequest(ctx context.Context, u *url.URL, opts RequestOptions) (jsonapi.Document, error) {
	return f(ctx, u, opts)
}
