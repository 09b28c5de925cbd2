package recognition

import (
	"github.com/lehigh-university-libraries/bookscan/internal/catalog"
	"github.com/lehigh-university-libraries/bookscan/internal/vision"
)

// Result is what a scan returns. Book is nil when nothing matched; that is a
// successful outcome and Text then carries the OCR text for manual entry.
type Result struct {
	Text         string        `json:"text,omitempty" yaml:"text,omitempty"`
	Book         *catalog.Book `json:"book" yaml:"book"`
	AnalysisData AnalysisData  `json:"analysis_data" yaml:"analysis_data"`
}

// AnalysisData holds the signals behind a result.
type AnalysisData struct {
	Logos          int            `json:"logos" yaml:"logos"`
	Objects        int            `json:"objects" yaml:"objects"`
	ExtractedISBNs []string       `json:"extracted_isbns" yaml:"extracted_isbns"`
	DominantColors []vision.Color `json:"dominant_colors" yaml:"dominant_colors"`
	// Confidence is a percentage; nil when no book matched.
	Confidence *int `json:"confidence" yaml:"confidence"`
	// Outcome is the kind of catalog lookup that produced the result.
	Outcome    string  `json:"outcome" yaml:"outcome"`
	Candidates int     `json:"candidates" yaml:"candidates"`
	TopScore   float64 `json:"top_score,omitempty" yaml:"top_score,omitempty"`
}

// Matched reports whether the scan identified a book.
func (r *Result) Matched() bool {
	return r != nil && r.Book != nil
}
