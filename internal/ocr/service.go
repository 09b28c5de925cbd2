package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/bookscan/internal/gemini"
	"github.com/lehigh-university-libraries/bookscan/internal/ollama"
	"github.com/lehigh-university-libraries/bookscan/internal/openai"
	"github.com/lehigh-university-libraries/bookscan/internal/providers"
	"github.com/lehigh-university-libraries/bookscan/internal/tesseract"
	"github.com/lehigh-university-libraries/bookscan/internal/vision"
)

// Text-only OCR providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderTesseract = "tesseract"
)

// Settings carries the credentials and endpoints of the text-only providers.
type Settings struct {
	Model        string
	OllamaURL    string
	OpenAIAPIKey string
	OpenAIURL    string
	GeminiAPIKey string
	HTTPClient   *http.Client
}

// Service transcribes cover text with an LLM or Tesseract. It reports text only:
// logos, objects and colors are always empty.
type Service struct {
	name     string
	model    string
	provider providers.Provider
}

// NewService creates an OCR service for the named provider
func NewService(provider string, settings Settings) (*Service, error) {
	var (
		p   providers.Provider
		err error
	)

	switch provider {
	case ProviderOllama:
		p = ollama.New(settings.OllamaURL, settings.HTTPClient)
	case ProviderOpenAI:
		p, err = openai.New(settings.OpenAIAPIKey, settings.OpenAIURL, settings.HTTPClient)
	case ProviderGemini:
		p, err = gemini.New(settings.GeminiAPIKey)
	case ProviderTesseract:
		p, err = tesseract.New()
	default:
		return nil, fmt.Errorf("unsupported OCR provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}

	return NewServiceWithProvider(provider, settings.Model, p), nil
}

// NewServiceWithProvider wraps an already constructed provider
func NewServiceWithProvider(name, model string, p providers.Provider) *Service {
	if model == "" {
		model = DefaultModel(name)
	}
	return &Service{name: name, model: model, provider: p}
}

// DefaultModel returns the model used when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o"
	case ProviderOllama:
		return "mistral-small3.2:24b"
	case ProviderGemini:
		return "gemini-1.5-flash"
	default:
		return ""
	}
}

// Analyze implements vision.Analyzer
func (s *Service) Analyze(ctx context.Context, image []byte) (*vision.Annotation, error) {
	text, err := s.provider.ExtractText(ctx, providers.Config{
		Model:       s.model,
		Temperature: 0.0, // Zero temperature for exact OCR
		Prompt:      buildOCRPrompt(),
		Image:       image,
		MIMEType:    http.DetectContentType(image),
	})
	if err != nil {
		return nil, fmt.Errorf("%s OCR failed: %w", s.name, err)
	}

	text = stripCodeFence(text)
	slog.Info("Extracted OCR text", "provider", s.name, "model", s.model, "length", len(text))

	return &vision.Annotation{
		Text:           text,
		Logos:          []vision.Label{},
		Objects:        []vision.Label{},
		DominantColors: []vision.Color{},
	}, nil
}

func buildOCRPrompt() string {
	return `You are performing OCR (Optical Character Recognition) on a photographed book cover.

Your task is to extract ALL visible text from the image exactly as it appears, preserving:
- Line breaks and formatting
- Capitalization
- Punctuation
- ISBN numbers and barcode digits
- Order of text elements

INSTRUCTIONS:
1. Read the image carefully from top to bottom
2. Transcribe every piece of visible text, including the title, author, publisher and any ISBN
3. Preserve the original line breaks
4. Do not add any interpretation, commentary, or explanations
5. If text is partially obscured or unclear, transcribe what you can see and use [?] for illegible portions

OUTPUT FORMAT:
Provide ONLY the extracted text. Do not include phrases like "Here is the text:" or "The image contains:".
Start immediately with the transcribed text from the cover.

Example output:
THE ADVENTURES OF
TOM SAWYER

by Mark Twain

ISBN 978-0-14-303956-3`
}

// stripCodeFence removes a markdown code block wrapped around the model output
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.Index(text, "\n"); i >= 0 && !strings.Contains(text[:i], " ") {
		// drop a language tag such as ```text
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
