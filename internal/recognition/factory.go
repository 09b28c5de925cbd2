package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/bookscan/internal/catalog"
	"github.com/lehigh-university-libraries/bookscan/internal/config"
	"github.com/lehigh-university-libraries/bookscan/internal/ocr"
	"github.com/lehigh-university-libraries/bookscan/internal/vision"
)

// NewFromConfig builds a Recognizer with the configured vision provider and catalog backend.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	analyzer, err := NewAnalyzer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	searcher, err := catalog.NewClient(ctx, cfg.Catalog.Backend, catalog.Options{
		APIKey:   cfg.Catalog.APIKey,
		Endpoint: cfg.Catalog.Endpoint,
		Timeout:  cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Configured recognizer",
		"vision_provider", cfg.Vision.Provider,
		"catalog_backend", cfg.Catalog.Backend,
		"max_results", cfg.Catalog.MaxResults)

	return New(analyzer, searcher, cfg.Catalog.MaxResults), nil
}

// NewAnalyzer creates the vision analyzer named by cfg.Vision.Provider.
func NewAnalyzer(ctx context.Context, cfg *config.Config) (vision.Analyzer, error) {
	if cfg.Vision.Provider == config.ProviderCloudVision {
		cv, err := vision.NewCloudVision(ctx, vision.CloudVisionOptions{
			APIKey:   cfg.Vision.APIKey,
			Endpoint: cfg.Vision.Endpoint,
			Timeout:  cfg.HTTPTimeout,
		})
		if err != nil {
			return nil, err
		}
		return cv, nil
	}

	settings := ocr.Settings{
		Model:        cfg.VisionModel(),
		OllamaURL:    cfg.Ollama.URL,
		OpenAIAPIKey: cfg.OpenAI.APIKey,
		OpenAIURL:    cfg.OpenAI.BaseURL,
		GeminiAPIKey: cfg.Gemini.APIKey,
		HTTPClient:   &http.Client{Timeout: cfg.HTTPTimeout},
	}
	svc, err := ocr.NewService(cfg.Vision.Provider, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s analyzer: %w", cfg.Vision.Provider, err)
	}
	return svc, nil
}
