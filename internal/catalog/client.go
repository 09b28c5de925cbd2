package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Supported catalog backends.
const (
	BackendGoogleBooks = "googlebooks"
	BackendOpenLibrary = "openlibrary"
)

// DefaultMaxResults caps a text search.
const DefaultMaxResults = 20

// Searcher looks up candidate books in a catalog.
type Searcher interface {
	// SearchISBN returns the records matching an ISBN exactly; usually zero or one.
	SearchISBN(ctx context.Context, isbn string) ([]Book, error)
	// SearchText returns up to maxResults records for a free-text query, in catalog order.
	SearchText(ctx context.Context, query string, maxResults int) ([]Book, error)
}

// Options configures a catalog client.
type Options struct {
	// APIKey is optional for both backends.
	APIKey string
	// Endpoint overrides the backend's base URL.
	Endpoint string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// Timeout is used when HTTPClient is nil.
	Timeout time.Duration
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// NewClient creates a catalog searcher for the named backend.
func NewClient(ctx context.Context, backend string, opts Options) (Searcher, error) {
	switch backend {
	case BackendGoogleBooks, "":
		return NewGoogleBooks(ctx, opts)
	case BackendOpenLibrary:
		return NewOpenLibrary(opts), nil
	default:
		return nil, fmt.Errorf("unsupported catalog backend: %s", backend)
	}
}
