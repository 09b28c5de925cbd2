package evaluation

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RunConfig records how an evaluation was run
type RunConfig struct {
	VisionProvider string `yaml:"vision_provider"`
	Model          string `yaml:"model,omitempty"`
	CatalogBackend string `yaml:"catalog_backend"`
	DatasetPath    string `yaml:"dataset_path"`
	SampleSize     int    `yaml:"sample_size"`
	Concurrency    int    `yaml:"concurrency"`
	Timestamp      string `yaml:"timestamp"`
}

// Summary holds aggregate metrics over a run
type Summary struct {
	Total    int `yaml:"total"`
	Failures int `yaml:"failures"`
	NoMatch  int `yaml:"no_match"`
	Matched  int `yaml:"matched"`
	// ISBNAccuracy is the share of items with an expected ISBN whose match carries it
	ISBNEvaluated       int     `yaml:"isbn_evaluated"`
	ISBNCorrect         int     `yaml:"isbn_correct"`
	ISBNAccuracy        float64 `yaml:"isbn_accuracy"`
	MeanTitleSimilarity float64 `yaml:"mean_title_similarity"`
	MeanConfidence      float64 `yaml:"mean_confidence"`
}

// Results is the complete evaluation output
type Results struct {
	Config  RunConfig    `yaml:"config"`
	Summary Summary      `yaml:"summary"`
	Items   []ItemResult `yaml:"items"`
}

// Summarize aggregates per-item results.
// Failed scans count against ISBN accuracy and title similarity; they are not excluded.
func Summarize(items []ItemResult) Summary {
	s := Summary{Total: len(items)}

	var (
		titleTotal      float64
		titleCount      int
		confidenceTotal float64
	)

	for _, r := range items {
		switch {
		case r.Error != "":
			s.Failures++
		case !r.Matched:
			s.NoMatch++
		default:
			s.Matched++
			confidenceTotal += float64(r.Confidence)
		}

		if r.ExpectedISBN != "" {
			s.ISBNEvaluated++
			if r.ISBNHit {
				s.ISBNCorrect++
			}
		}
		if r.ExpectedTitle != "" {
			titleCount++
			titleTotal += r.TitleSimilarity
		}
	}

	if s.ISBNEvaluated > 0 {
		s.ISBNAccuracy = float64(s.ISBNCorrect) / float64(s.ISBNEvaluated)
	}
	if titleCount > 0 {
		s.MeanTitleSimilarity = titleTotal / float64(titleCount)
	}
	if s.Matched > 0 {
		s.MeanConfidence = confidenceTotal / float64(s.Matched)
	}

	return s
}

// SaveResults writes results as YAML
func SaveResults(results *Results, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}

	return nil
}

// LoadResults reads results written by SaveResults
func LoadResults(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}

	var results Results
	if err := yaml.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}

	return &results, nil
}
