//go:build tesseract

// Package tesseract transcribes cover text locally with Tesseract through gosseract.
// Build with -tags tesseract; libtesseract and leptonica must be installed.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/lehigh-university-libraries/bookscan/internal/providers"
)

// Tesseract is a local OCR provider.
type Tesseract struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// Available reports whether Tesseract support was compiled in.
func Available() bool { return true }

// New returns a Tesseract provider. Languages default to English.
func New(languages ...string) (*Tesseract, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Tesseract{languages: languages, clientFactory: gosseract.NewClient}, nil
}

// ExtractText runs Tesseract on the image. The model, prompt and temperature are ignored.
func (t *Tesseract) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := t.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImageFromBytes(config.Image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
