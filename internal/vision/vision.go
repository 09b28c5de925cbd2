// Package vision defines the image-analysis boundary of a cover scan and its
// Google Cloud Vision implementation.
package vision

import (
	"context"
	"fmt"
)

// Annotation is what an image-analysis service reports for one photographed cover.
type Annotation struct {
	Text           string  `json:"text"`
	Logos          []Label `json:"logos"`
	Objects        []Label `json:"objects"`
	DominantColors []Color `json:"dominant_colors"`
}

// Label is a detected logo or object.
type Label struct {
	Description string  `json:"description" yaml:"description"`
	Score       float64 `json:"score" yaml:"score"`
}

// Color is one of the dominant colors of the image, strongest first.
type Color struct {
	Red           int     `json:"red" yaml:"red"`
	Green         int     `json:"green" yaml:"green"`
	Blue          int     `json:"blue" yaml:"blue"`
	Score         float64 `json:"score" yaml:"score"`
	PixelFraction float64 `json:"pixel_fraction" yaml:"pixel_fraction"`
}

// Hex renders the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", clampByte(c.Red), clampByte(c.Green), clampByte(c.Blue))
}

func clampByte(v int) int {
	return min(max(v, 0), 255)
}

// Analyzer runs image analysis on raw image bytes.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (*Annotation, error)
}
