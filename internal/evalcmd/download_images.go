package evalcmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookscan/internal/catalog"
	"github.com/lehigh-university-libraries/bookscan/internal/config"
	"github.com/lehigh-university-libraries/bookscan/internal/evaluation"
	"github.com/lehigh-university-libraries/bookscan/internal/images"
)

// Open Library allows 100 req/5min, so ~1 req/sec is safe
const fetchDelay = time.Second

func executeFetchCovers(ctx context.Context, out io.Writer, cfg *config.Config, isbns []string, outputDir, format string) error {
	if format != "jsonl" && format != "parquet" {
		return fmt.Errorf("unsupported dataset format: %s", format)
	}

	books, err := catalog.NewClient(ctx, cfg.Catalog.Backend, catalog.Options{
		APIKey:   cfg.Catalog.APIKey,
		Endpoint: cfg.Catalog.Endpoint,
		Timeout:  cfg.HTTPTimeout,
	})
	if err != nil {
		return err
	}

	return fetchCovers(ctx, out, images.NewFetcher(books), books, isbns, outputDir, format, fetchDelay)
}

func fetchCovers(ctx context.Context, out io.Writer, fetcher *images.Fetcher, books catalog.Searcher, isbns []string, outputDir, format string, delay time.Duration) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	datasetPath := filepath.Join(outputDir, "dataset."+format)

	var items []evaluation.DatasetItem
	successCount, errorCount := 0, 0

	for i, raw := range isbns {
		isbn := images.CleanISBN(raw)
		slog.Info("Processing ISBN", "isbn", isbn, "progress", fmt.Sprintf("%d/%d", i+1, len(isbns)))

		path, err := fetcher.DownloadCover(ctx, isbn, outputDir)
		if err != nil {
			slog.Warn("Failed to fetch cover", "isbn", isbn, "error", err)
			errorCount++
			continue
		}

		item := evaluation.DatasetItem{
			ID:           isbn,
			ImagePath:    filepath.Base(path),
			ExpectedISBN: isbn,
		}
		if found, err := books.SearchISBN(ctx, isbn); err == nil && len(found) > 0 {
			item.ExpectedTitle = found[0].Title
			item.ExpectedAuthor = found[0].AuthorLine()
		}

		if format == "jsonl" {
			if err := evaluation.AppendDatasetItem(item, datasetPath); err != nil {
				return err
			}
		}
		items = append(items, item)
		successCount++

		if i < len(isbns)-1 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	if format == "parquet" && len(items) > 0 {
		if err := evaluation.SaveDatasetParquet(items, datasetPath); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Fetched %d covers (%d failed)\nDataset: %s\n", successCount, errorCount, datasetPath)
	return nil
}

func readISBNFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ISBN file: %w", err)
	}
	defer file.Close()

	var isbns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		isbns = append(isbns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ISBN file: %w", err)
	}
	return isbns, nil
}
