package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"
)

// Feature limits requested from Cloud Vision.
const (
	maxLogoResults   = 5
	maxObjectResults = 10
	maxColorResults  = 5
)

// CloudVisionOptions configures the Cloud Vision analyzer.
type CloudVisionOptions struct {
	// APIKey authenticates requests; without it application default credentials are used.
	APIKey string
	// Endpoint overrides the service base URL.
	Endpoint string
	// HTTPClient overrides the transport. When set, APIKey and default credentials are not applied.
	HTTPClient *http.Client
	// Timeout bounds each Analyze call; zero means no limit beyond the caller's context.
	Timeout time.Duration
}

// CloudVision analyzes images with Google Cloud Vision.
type CloudVision struct {
	service *visionapi.Service
	timeout time.Duration
}

// NewCloudVision creates a Cloud Vision analyzer.
func NewCloudVision(ctx context.Context, opts CloudVisionOptions) (*CloudVision, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	case opts.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	service, err := visionapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud vision client: %w", err)
	}

	return &CloudVision{service: service, timeout: opts.Timeout}, nil
}

// Analyze requests text, logo, object and image-property detection for one image.
func (c *CloudVision) Analyze(ctx context.Context, image []byte) (*Annotation, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := &visionapi.BatchAnnotateImagesRequest{
		Requests: []*visionapi.AnnotateImageRequest{
			{
				Image: &visionapi.Image{Content: base64.StdEncoding.EncodeToString(image)},
				Features: []*visionapi.Feature{
					{Type: "TEXT_DETECTION"},
					{Type: "LOGO_DETECTION", MaxResults: maxLogoResults},
					{Type: "OBJECT_LOCALIZATION", MaxResults: maxObjectResults},
					{Type: "IMAGE_PROPERTIES", MaxResults: maxColorResults},
				},
			},
		},
	}

	resp, err := c.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("cloud vision request failed: %w", err)
	}

	if len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return nil, fmt.Errorf("cloud vision returned no response")
	}

	annotation, err := annotationFromResponse(resp.Responses[0])
	if err != nil {
		return nil, err
	}

	slog.Info("Analyzed image", "provider", "cloudvision",
		"text_length", len(annotation.Text),
		"logos", len(annotation.Logos),
		"objects", len(annotation.Objects))
	return annotation, nil
}

func annotationFromResponse(r *visionapi.AnnotateImageResponse) (*Annotation, error) {
	if r.Error != nil && r.Error.Code != 0 {
		return nil, fmt.Errorf("cloud vision error %d: %s", r.Error.Code, r.Error.Message)
	}

	a := &Annotation{
		Logos:          []Label{},
		Objects:        []Label{},
		DominantColors: []Color{},
	}

	switch {
	case r.FullTextAnnotation != nil && r.FullTextAnnotation.Text != "":
		a.Text = r.FullTextAnnotation.Text
	case len(r.TextAnnotations) > 0 && r.TextAnnotations[0] != nil:
		a.Text = r.TextAnnotations[0].Description
	}

	for _, logo := range r.LogoAnnotations {
		if logo == nil {
			continue
		}
		a.Logos = append(a.Logos, Label{Description: logo.Description, Score: logo.Score})
	}

	for _, obj := range r.LocalizedObjectAnnotations {
		if obj == nil {
			continue
		}
		a.Objects = append(a.Objects, Label{Description: obj.Name, Score: obj.Score})
	}

	if props := r.ImagePropertiesAnnotation; props != nil && props.DominantColors != nil {
		for _, info := range props.DominantColors.Colors {
			if info == nil || info.Color == nil {
				continue
			}
			a.DominantColors = append(a.DominantColors, Color{
				Red:           int(info.Color.Red),
				Green:         int(info.Color.Green),
				Blue:          int(info.Color.Blue),
				Score:         info.Score,
				PixelFraction: info.PixelFraction,
			})
		}
	}

	return a, nil
}
