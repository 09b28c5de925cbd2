package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/bookscan/internal/catalog"
	"github.com/lehigh-university-libraries/bookscan/internal/extract"
)

// Outcome is the result of a catalog lookup: ExactMatch, Candidates or NoResults.
type Outcome interface {
	Kind() string
}

// ExactMatch is a catalog record found by one of the ISBNs printed on the cover.
type ExactMatch struct {
	ISBN string
	Book catalog.Book
}

// Candidates are the records returned by a text search, in catalog order.
type Candidates struct {
	Query string
	Books []catalog.Book
}

// NoResults means the catalog had nothing for the cover.
type NoResults struct {
	Query string
}

func (ExactMatch) Kind() string { return "exact_match" }
func (Candidates) Kind() string { return "candidates" }
func (NoResults) Kind() string  { return "no_results" }

// FetchCandidates looks the cover up in the catalog.
//
// ISBNs are tried one at a time in the order they were found and the first hit ends the
// lookup. Otherwise the catalog is searched with the extracted title and author, or the
// raw text when no title was found. Catalog errors end the lookup immediately.
func FetchCandidates(ctx context.Context, searcher catalog.Searcher, detectedText string, info extract.Info, maxResults int) (Outcome, error) {
	for _, isbn := range info.ISBNs {
		books, err := searcher.SearchISBN(ctx, isbn)
		if err != nil {
			return nil, fmt.Errorf("isbn search for %s failed: %w", isbn, err)
		}
		if len(books) > 0 {
			slog.Info("Found book by ISBN", "isbn", isbn, "title", books[0].Title)
			return ExactMatch{ISBN: isbn, Book: books[0]}, nil
		}
		slog.Debug("No catalog record for ISBN", "isbn", isbn)
	}

	query := searchQuery(detectedText, info)
	if query == "" {
		return NoResults{}, nil
	}

	books, err := searcher.SearchText(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}
	if len(books) == 0 {
		return NoResults{Query: query}, nil
	}
	if len(books) > maxResults && maxResults > 0 {
		books = books[:maxResults]
	}

	return Candidates{Query: query, Books: books}, nil
}

func searchQuery(detectedText string, info extract.Info) string {
	if info.Title != "" {
		return strings.TrimSpace(info.Title + " " + info.Author)
	}
	return strings.TrimSpace(detectedText)
}
