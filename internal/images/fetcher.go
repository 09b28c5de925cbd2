package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookscan/internal/catalog"
)

const (
	openLibraryCoversURL = "https://covers.openlibrary.org"
	googleBooksContent   = "https://books.google.com/books/content"

	// Open Library answers unknown ISBNs with a tiny placeholder
	minOpenLibraryCoverBytes = 1000
	// Google Books placeholder images are typically around 7-12KB
	minGoogleCoverBytes = 20000
)

// ErrNoCover is returned when no source has a usable cover for an ISBN.
var ErrNoCover = errors.New("no cover image found")

// Fetcher downloads cover images for known ISBNs. It is used to build evaluation datasets.
type Fetcher struct {
	HTTPClient *http.Client
	// CoversURL is the Open Library covers base URL.
	CoversURL string
	// ContentURL is the Google Books content endpoint used for front covers.
	ContentURL string
	// Books resolves an ISBN to a Google Books volume for the fallback; nil disables it.
	Books catalog.Searcher
	// MaxBytes rejects larger responses without reading past the limit; zero means no limit.
	MaxBytes int64
}

// NewFetcher creates a new cover fetcher
func NewFetcher(books catalog.Searcher) *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		CoversURL:  openLibraryCoversURL,
		ContentURL: googleBooksContent,
		Books:      books,
	}
}

// DownloadCover saves the cover of isbn as {dir}/{isbn}_cover.jpg and returns the path.
// Open Library is tried first, then the Google Books front cover.
func (f *Fetcher) DownloadCover(ctx context.Context, isbn, dir string) (string, error) {
	isbn = CleanISBN(isbn)
	path := filepath.Join(dir, fmt.Sprintf("%s_cover.jpg", isbn))
	slog.Info("Fetching cover for ISBN", "isbn", isbn)

	url := fmt.Sprintf("%s/b/isbn/%s-L.jpg", strings.TrimRight(f.CoversURL, "/"), isbn)
	err := f.downloadImage(ctx, url, path, minOpenLibraryCoverBytes)
	if err == nil {
		slog.Info("Downloaded cover from Open Library", "isbn", isbn, "path", path)
		return path, nil
	}
	slog.Debug("Open Library cover unavailable", "isbn", isbn, "error", err)

	if f.Books == nil {
		return "", fmt.Errorf("%w for ISBN %s", ErrNoCover, isbn)
	}

	books, err := f.Books.SearchISBN(ctx, isbn)
	if err != nil {
		return "", fmt.Errorf("failed to look up ISBN %s: %w", isbn, err)
	}
	if len(books) == 0 {
		return "", fmt.Errorf("%w for ISBN %s", ErrNoCover, isbn)
	}

	var urls []string
	if books[0].ID != "" {
		urls = append(urls, fmt.Sprintf("%s?id=%s&printsec=frontcover&img=1&zoom=1&hl=en&w=1280", f.ContentURL, books[0].ID))
	}
	if u := books[0].ImageLinks.BestCoverURL(); u != "" {
		urls = append(urls, u)
	}

	for _, u := range urls {
		if err := f.downloadImage(ctx, u, path, minGoogleCoverBytes); err != nil {
			slog.Debug("Failed to download cover", "isbn", isbn, "url", u, "error", err)
			continue
		}
		slog.Info("Downloaded cover from Google Books", "isbn", isbn, "path", path)
		return path, nil
	}

	return "", fmt.Errorf("%w for ISBN %s", ErrNoCover, isbn)
}

// downloadImage downloads an image from a URL to a file
func (f *Fetcher) downloadImage(ctx context.Context, url, outputPath string, minBytes int) error {
	imageData, err := f.Fetch(ctx, url)
	if err != nil {
		return err
	}

	// If image is too small, it's probably a placeholder
	if len(imageData) < minBytes {
		return fmt.Errorf("image too small (likely placeholder), size: %d bytes", len(imageData))
	}

	if err := os.WriteFile(outputPath, imageData, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	return nil
}

// Fetch downloads url, failing on a non-200 status or a body over MaxBytes.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	if f.MaxBytes > 0 {
		if resp.ContentLength > f.MaxBytes {
			return nil, fmt.Errorf("%w: %d bytes announced, limit %d", ErrTooLarge, resp.ContentLength, f.MaxBytes)
		}
		return LoadFrom(resp.Body, f.MaxBytes)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

// CleanISBN removes hyphens and normalizes ISBN
func CleanISBN(isbn string) string {
	return strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
}
