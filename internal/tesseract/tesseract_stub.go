//go:build !tesseract

package tesseract

import (
	"context"
	"errors"

	"github.com/lehigh-university-libraries/bookscan/internal/providers"
)

// ErrNotCompiled is returned when the binary was built without the tesseract tag.
var ErrNotCompiled = errors.New("tesseract support not compiled in; rebuild with -tags tesseract")

// Tesseract is unavailable in this build.
type Tesseract struct{}

// Available reports whether Tesseract support was compiled in.
func Available() bool { return false }

// New always fails in builds without the tesseract tag.
func New(languages ...string) (*Tesseract, error) {
	return nil, ErrNotCompiled
}

// ExtractText always fails in builds without the tesseract tag.
func (t *Tesseract) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	return "", ErrNotCompiled
}
