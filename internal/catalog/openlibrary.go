package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	openLibraryURL       = "https://openlibrary.org"
	openLibraryCoversURL = "https://covers.openlibrary.org"

	openLibrarySearchFields = "key,title,subtitle,author_name,isbn,cover_i,first_publish_year,number_of_pages_median,subject,ratings_average,ratings_count,publisher"
)

// OpenLibrary searches the Open Library Books and Search APIs.
type OpenLibrary struct {
	BaseURL    string
	CoversURL  string
	httpClient *http.Client
}

// NewOpenLibrary creates an Open Library searcher.
func NewOpenLibrary(opts Options) *OpenLibrary {
	base := openLibraryURL
	covers := openLibraryCoversURL
	if opts.Endpoint != "" {
		base = strings.TrimRight(opts.Endpoint, "/")
		covers = base
	}
	return &OpenLibrary{
		BaseURL:    base,
		CoversURL:  covers,
		httpClient: opts.httpClient(),
	}
}

// openLibraryBooksResponse is the Books API response for jscmd=data, keyed by bibkey.
type openLibraryBooksResponse map[string]struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	PublishDate   string `json:"publish_date"`
	NumberOfPages int    `json:"number_of_pages"`
	Identifiers   struct {
		ISBN10 []string `json:"isbn_10"`
		ISBN13 []string `json:"isbn_13"`
	} `json:"identifiers"`
	Subjects []struct {
		Name string `json:"name"`
	} `json:"subjects"`
	Cover struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
}

// openLibrarySearchResponse is the Search API response.
type openLibrarySearchResponse struct {
	NumFound int `json:"numFound"`
	Docs     []struct {
		Key                 string   `json:"key"`
		Title               string   `json:"title"`
		Subtitle            string   `json:"subtitle"`
		AuthorName          []string `json:"author_name"`
		ISBN                []string `json:"isbn"`
		CoverID             int      `json:"cover_i"`
		FirstPublishYear    int      `json:"first_publish_year"`
		NumberOfPagesMedian int      `json:"number_of_pages_median"`
		Subject             []string `json:"subject"`
		RatingsAverage      float64  `json:"ratings_average"`
		RatingsCount        int      `json:"ratings_count"`
		Publisher           []string `json:"publisher"`
	} `json:"docs"`
}

// SearchISBN looks up an edition by ISBN.
func (o *OpenLibrary) SearchISBN(ctx context.Context, isbn string) ([]Book, error) {
	bibkey := "ISBN:" + isbn
	params := url.Values{}
	params.Set("bibkeys", bibkey)
	params.Set("format", "json")
	params.Set("jscmd", "data")

	var result openLibraryBooksResponse
	if err := o.getJSON(ctx, "/api/books?"+params.Encode(), &result); err != nil {
		return nil, err
	}

	rec, ok := result[bibkey]
	if !ok {
		return []Book{}, nil
	}

	b := Book{
		ID:            rec.Key,
		Title:         rec.Title,
		Subtitle:      rec.Subtitle,
		PublishedDate: rec.PublishDate,
		PageCount:     rec.NumberOfPages,
		InfoLink:      rec.URL,
		ImageLinks: ImageLinks{
			SmallThumbnail: rec.Cover.Small,
			Medium:         rec.Cover.Medium,
			Large:          rec.Cover.Large,
		},
	}
	for _, a := range rec.Authors {
		b.Authors = append(b.Authors, a.Name)
	}
	if len(rec.Publishers) > 0 {
		b.Publisher = rec.Publishers[0].Name
	}
	for _, s := range rec.Subjects {
		b.Categories = append(b.Categories, s.Name)
	}
	for _, v := range rec.Identifiers.ISBN10 {
		b.Identifiers = append(b.Identifiers, Identifier{Type: IdentifierISBN10, Value: v})
	}
	for _, v := range rec.Identifiers.ISBN13 {
		b.Identifiers = append(b.Identifiers, Identifier{Type: IdentifierISBN13, Value: v})
	}

	return []Book{b}, nil
}

// SearchText runs a free-text search.
func (o *OpenLibrary) SearchText(ctx context.Context, query string, maxResults int) ([]Book, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(maxResults))
	params.Set("fields", openLibrarySearchFields)

	var result openLibrarySearchResponse
	if err := o.getJSON(ctx, "/search.json?"+params.Encode(), &result); err != nil {
		return nil, err
	}

	results := make([]Book, 0, len(result.Docs))
	for _, doc := range result.Docs {
		b := Book{
			ID:            doc.Key,
			Title:         doc.Title,
			Subtitle:      doc.Subtitle,
			Authors:       doc.AuthorName,
			PageCount:     doc.NumberOfPagesMedian,
			Categories:    doc.Subject,
			AverageRating: doc.RatingsAverage,
			RatingsCount:  doc.RatingsCount,
		}
		if doc.FirstPublishYear > 0 {
			b.PublishedDate = strconv.Itoa(doc.FirstPublishYear)
		}
		if len(doc.Publisher) > 0 {
			b.Publisher = doc.Publisher[0]
		}
		if doc.Key != "" {
			b.InfoLink = o.BaseURL + doc.Key
		}
		for _, isbn := range doc.ISBN {
			b.Identifiers = append(b.Identifiers, Identifier{Type: isbnType(isbn), Value: isbn})
		}
		if doc.CoverID > 0 {
			b.ImageLinks = o.coverLinks(doc.CoverID)
		}
		results = append(results, b)
		if len(results) == maxResults {
			break
		}
	}

	slog.Debug("Open Library search", "query", query, "num_found", result.NumFound, "returned", len(results))
	return results, nil
}

func (o *OpenLibrary) coverLinks(coverID int) ImageLinks {
	base := fmt.Sprintf("%s/b/id/%d", o.CoversURL, coverID)
	return ImageLinks{
		SmallThumbnail: base + "-S.jpg",
		Medium:         base + "-M.jpg",
		Large:          base + "-L.jpg",
	}
}

func (o *OpenLibrary) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create open library request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query open library: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("open library API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode open library response: %w", err)
	}
	return nil
}

func isbnType(isbn string) string {
	switch len(nonISBNChars.ReplaceAllString(isbn, "")) {
	case 10:
		return IdentifierISBN10
	case 13:
		return IdentifierISBN13
	default:
		return IdentifierOther
	}
}
