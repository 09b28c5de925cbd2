package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/lehigh-university-libraries/bookscan/internal/providers"
)

// maxTokens bounds the transcription length
const maxTokens = 2000

// OpenAI is a provider for OpenAI
type OpenAI struct {
	client oai.Client
}

// New returns a new OpenAI provider
func New(apiKey, baseURL string, httpClient *http.Client) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAI{client: oai.NewClient(opts...)}, nil
}

// ExtractText transcribes the image in config using an OpenAI vision model
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	mimeType := config.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(config.Image)

	resp, err := o.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: oai.ChatModel(config.Model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage([]oai.ChatCompletionContentPartUnionParam{
				oai.TextContentPart(config.Prompt),
				oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
		MaxTokens:   oai.Int(maxTokens),
		Temperature: oai.Float(config.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
