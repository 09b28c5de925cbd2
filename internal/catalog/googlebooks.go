package catalog

import (
	"context"
	"fmt"
	"log/slog"

	books "google.golang.org/api/books/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleBooks searches the Google Books volumes API.
type GoogleBooks struct {
	service *books.Service
	apiKey  string
}

// NewGoogleBooks creates a Google Books searcher.
// The API key is optional; unauthenticated requests are subject to lower quotas.
func NewGoogleBooks(ctx context.Context, opts Options) (*GoogleBooks, error) {
	clientOpts := []option.ClientOption{
		option.WithHTTPClient(opts.httpClient()),
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	service, err := books.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google books client: %w", err)
	}

	return &GoogleBooks{
		service: service,
		apiKey:  opts.APIKey,
	}, nil
}

// SearchISBN queries volumes by exact ISBN.
func (g *GoogleBooks) SearchISBN(ctx context.Context, isbn string) ([]Book, error) {
	return g.list(ctx, "isbn:"+isbn, 0)
}

// SearchText queries volumes by free text.
func (g *GoogleBooks) SearchText(ctx context.Context, query string, maxResults int) ([]Book, error) {
	return g.list(ctx, query, maxResults)
}

func (g *GoogleBooks) list(ctx context.Context, query string, maxResults int) ([]Book, error) {
	call := g.service.Volumes.List(query).Context(ctx)
	if maxResults > 0 {
		call = call.MaxResults(int64(maxResults))
	}

	var callOpts []googleapi.CallOption
	if g.apiKey != "" {
		callOpts = append(callOpts, googleapi.QueryParameter("key", g.apiKey))
	}

	resp, err := call.Do(callOpts...)
	if err != nil {
		return nil, fmt.Errorf("google books search failed: %w", err)
	}

	results := make([]Book, 0, len(resp.Items))
	for _, v := range resp.Items {
		if v == nil {
			continue
		}
		results = append(results, bookFromVolume(v))
	}

	slog.Debug("Google Books search", "query", query, "total_items", resp.TotalItems, "returned", len(results))
	return results, nil
}

func bookFromVolume(v *books.Volume) Book {
	b := Book{ID: v.Id}

	info := v.VolumeInfo
	if info == nil {
		return b
	}

	b.Title = info.Title
	b.Subtitle = info.Subtitle
	b.Authors = info.Authors
	b.Publisher = info.Publisher
	b.Description = info.Description
	b.PublishedDate = info.PublishedDate
	b.PageCount = int(info.PageCount)
	b.Categories = info.Categories
	b.AverageRating = info.AverageRating
	b.RatingsCount = int(info.RatingsCount)
	b.InfoLink = info.InfoLink

	for _, id := range info.IndustryIdentifiers {
		if id == nil || id.Identifier == "" {
			continue
		}
		b.Identifiers = append(b.Identifiers, Identifier{Type: id.Type, Value: id.Identifier})
	}

	if il := info.ImageLinks; il != nil {
		b.ImageLinks = ImageLinks{
			SmallThumbnail: il.SmallThumbnail,
			Thumbnail:      il.Thumbnail,
			Small:          il.Small,
			Medium:         il.Medium,
			Large:          il.Large,
			ExtraLarge:     il.ExtraLarge,
		}
	}

	return b
}
