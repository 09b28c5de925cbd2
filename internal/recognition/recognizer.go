package recognition

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/bookscan/internal/catalog"
	"github.com/lehigh-university-libraries/bookscan/internal/extract"
	"github.com/lehigh-university-libraries/bookscan/internal/scoring"
	"github.com/lehigh-university-libraries/bookscan/internal/vision"
)

var (
	// ErrNoImage is returned before any upstream call when the request carries no usable image.
	ErrNoImage = errors.New("no image provided")
	// ErrVision wraps failures of the image analysis service.
	ErrVision = errors.New("vision analysis failed")
	// ErrCatalog wraps failures of the book catalog.
	ErrCatalog = errors.New("catalog search failed")
)

// Recognizer identifies books from photographs of their covers.
// It holds no per-scan state and is safe for concurrent use.
type Recognizer struct {
	analyzer   vision.Analyzer
	searcher   catalog.Searcher
	maxResults int
}

// New creates a Recognizer. maxResults caps the text search; zero uses catalog.DefaultMaxResults.
func New(analyzer vision.Analyzer, searcher catalog.Searcher, maxResults int) *Recognizer {
	if maxResults <= 0 {
		maxResults = catalog.DefaultMaxResults
	}
	return &Recognizer{
		analyzer:   analyzer,
		searcher:   searcher,
		maxResults: maxResults,
	}
}

// Scan decodes a base64 image, optionally given as a data URL, and identifies the book.
func (r *Recognizer) Scan(ctx context.Context, imageBase64 string) (*Result, error) {
	image, err := DecodeImage(imageBase64)
	if err != nil {
		return nil, err
	}
	return r.ScanImage(ctx, image)
}

// ScanImage identifies the book on a raw image.
func (r *Recognizer) ScanImage(ctx context.Context, image []byte) (*Result, error) {
	if len(image) == 0 {
		return nil, ErrNoImage
	}

	annotation, err := r.analyzer.Analyze(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVision, err)
	}

	info := extract.BookInfo(annotation.Text)
	slog.Info("Extracted book info", "title", info.Title, "author", info.Author, "isbns", len(info.ISBNs))

	outcome, err := FetchCandidates(ctx, r.searcher, annotation.Text, info, r.maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalog, err)
	}

	result := assemble(annotation, info, outcome)
	if result.Matched() {
		slog.Info("Identified book", "outcome", outcome.Kind(), "title", result.Book.Title, "confidence", *result.AnalysisData.Confidence)
	} else {
		slog.Info("No matching book", "outcome", outcome.Kind(), "candidates", result.AnalysisData.Candidates)
	}

	return result, nil
}

func assemble(annotation *vision.Annotation, info extract.Info, outcome Outcome) *Result {
	result := &Result{
		Text: annotation.Text,
		AnalysisData: AnalysisData{
			Logos:          len(annotation.Logos),
			Objects:        len(annotation.Objects),
			ExtractedISBNs: info.ISBNs,
			DominantColors: annotation.DominantColors,
			Outcome:        outcome.Kind(),
		},
	}
	if result.AnalysisData.ExtractedISBNs == nil {
		result.AnalysisData.ExtractedISBNs = []string{}
	}
	if result.AnalysisData.DominantColors == nil {
		result.AnalysisData.DominantColors = []vision.Color{}
	}

	switch o := outcome.(type) {
	case ExactMatch:
		book := o.Book
		confidence := scoring.ExactMatchConfidence
		result.Book = &book
		result.AnalysisData.Confidence = &confidence
		result.AnalysisData.Candidates = 1

	case Candidates:
		ranked := scoring.Rank(o.Books, scoring.Input{
			DetectedText: annotation.Text,
			Info:         info,
			Logos:        len(annotation.Logos),
			Objects:      len(annotation.Objects),
		})
		result.AnalysisData.Candidates = len(ranked)
		if len(ranked) == 0 || ranked[0].Score <= 0 {
			break
		}
		top := ranked[0]
		confidence := scoring.Confidence(top.Score)
		result.Book = &top.Book
		result.AnalysisData.Confidence = &confidence
		result.AnalysisData.TopScore = top.Score

	case NoResults:
	}

	return result
}

// DecodeImage strips an optional data URL prefix and decodes base64 image data.
func DecodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	if s == "" {
		return nil, ErrNoImage
	}

	// Some clients send unpadded or URL-safe base64
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		data, err := enc.DecodeString(s)
		if err != nil {
			continue
		}
		if len(data) == 0 {
			return nil, ErrNoImage
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: invalid base64 image data", ErrNoImage)
}
