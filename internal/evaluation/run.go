package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/bookscan/internal/extract"
	"github.com/lehigh-university-libraries/bookscan/internal/images"
	"github.com/lehigh-university-libraries/bookscan/internal/recognition"
	"github.com/lehigh-university-libraries/bookscan/internal/similarity"
)

// Scanner identifies the book on a cover image
type Scanner interface {
	ScanImage(ctx context.Context, image []byte) (*recognition.Result, error)
}

// ItemResult is the outcome of scanning one dataset item
type ItemResult struct {
	ID              string        `yaml:"id"`
	ImagePath       string        `yaml:"image_path"`
	ExpectedISBN    string        `yaml:"expected_isbn,omitempty"`
	ExpectedTitle   string        `yaml:"expected_title,omitempty"`
	Matched         bool          `yaml:"matched"`
	MatchedTitle    string        `yaml:"matched_title,omitempty"`
	MatchedAuthors  string        `yaml:"matched_authors,omitempty"`
	MatchedISBNs    []string      `yaml:"matched_isbns,omitempty"`
	ExtractedISBNs  []string      `yaml:"extracted_isbns,omitempty"`
	Outcome         string        `yaml:"outcome,omitempty"`
	Confidence      int           `yaml:"confidence"`
	ISBNHit         bool          `yaml:"isbn_hit"`
	TitleSimilarity float64       `yaml:"title_similarity"`
	Duration        time.Duration `yaml:"duration"`
	Error           string        `yaml:"error,omitempty"`
}

// Run scans every item with at most concurrency scans in flight.
// Results are returned in dataset order.
func Run(ctx context.Context, scanner Scanner, items []DatasetItem, concurrency int) []ItemResult {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]ItemResult, len(items))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i, item := range items {
		wg.Add(1)
		go func(idx int, item DatasetItem) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Processing item", "id", item.ID, "progress", fmt.Sprintf("%d/%d", idx+1, len(items)))
			results[idx] = processItem(ctx, scanner, item)
		}(i, item)
	}

	wg.Wait()
	return results
}

func processItem(ctx context.Context, scanner Scanner, item DatasetItem) (result ItemResult) {
	result = ItemResult{
		ID:            item.ID,
		ImagePath:     item.ImagePath,
		ExpectedISBN:  item.ExpectedISBN,
		ExpectedTitle: item.ExpectedTitle,
	}

	if item.ImagePath == "" {
		result.Error = "no image path"
		return result
	}

	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	image, err := images.Load(ctx, item.ImagePath)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	scan, err := scanner.ScanImage(ctx, image)
	if err != nil {
		result.Error = err.Error()
		slog.Warn("Scan failed", "id", item.ID, "error", err)
		return result
	}

	result.Outcome = scan.AnalysisData.Outcome
	result.ExtractedISBNs = scan.AnalysisData.ExtractedISBNs
	if !scan.Matched() {
		return result
	}

	result.Matched = true
	result.MatchedTitle = scan.Book.Title
	result.MatchedAuthors = scan.Book.AuthorLine()
	result.MatchedISBNs = scan.Book.NormalizedISBNs()
	if scan.AnalysisData.Confidence != nil {
		result.Confidence = *scan.AnalysisData.Confidence
	}
	if item.ExpectedISBN != "" {
		result.ISBNHit = scan.Book.HasISBN([]string{extract.NormalizeISBN(item.ExpectedISBN)})
	}
	if item.ExpectedTitle != "" {
		result.TitleSimilarity = similarity.EditDistance(strings.ToLower(item.ExpectedTitle), strings.ToLower(scan.Book.Title))
	}

	return result
}
