package providers

import (
	"context"
)

// Config represents one OCR request to a text-only provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// Image is the raw image to transcribe
	Image []byte
	// MIMEType of Image, e.g. "image/jpeg"
	MIMEType string
}

// Provider defines the interface for a provider that transcribes the text on an image
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}
