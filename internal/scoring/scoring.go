package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/bookscan/internal/catalog"
	"github.com/lehigh-university-libraries/bookscan/internal/extract"
	"github.com/lehigh-university-libraries/bookscan/internal/similarity"
)

// Confidence bounds for matches chosen by text similarity. ISBN matches
// are reported with ExactMatchConfidence and never pass through the clamp.
const (
	MinConfidence        = 60
	MaxConfidence        = 90
	ExactMatchConfidence = 95
)

// Input is everything a candidate is scored against.
type Input struct {
	DetectedText string
	Info         extract.Info
	Logos        int
	Objects      int
}

// Signal is one weighted term of a candidate's score.
// Eval returns a value that is multiplied by Weight.
type Signal struct {
	Name   string
	Weight float64
	Eval   func(book catalog.Book, in Input) float64
}

// CoverPoints are the flat points awarded for the best cover size a candidate offers.
var CoverPoints = map[string]float64{
	catalog.CoverExtraLarge:     10,
	catalog.CoverLarge:          8,
	catalog.CoverMedium:         6,
	catalog.CoverThumbnail:      4,
	catalog.CoverSmallThumbnail: 2,
}

// Signals is the scoring table applied to every candidate.
var Signals = []Signal{
	{Name: "isbn_match", Weight: 50, Eval: isbnMatch},
	{Name: "logo_detected", Weight: 8, Eval: logoDetected},
	{Name: "object_detected", Weight: 7, Eval: objectDetected},
	{Name: "title_similarity", Weight: 15, Eval: titleSimilarity},
	{Name: "author_similarity", Weight: 10, Eval: authorSimilarity},
	{Name: "cover_quality", Weight: 1, Eval: coverQuality},
}

// Scored is a candidate with its total score.
type Scored struct {
	Book  catalog.Book `json:"book" yaml:"book"`
	Score float64      `json:"score" yaml:"score"`
}

// Score sums every signal for one candidate
func Score(book catalog.Book, in Input) float64 {
	total := 0.0
	for _, s := range Signals {
		total += s.Weight * s.Eval(book, in)
	}
	return total
}

// Breakdown returns the weighted contribution of each signal, keyed by signal name
func Breakdown(book catalog.Book, in Input) map[string]float64 {
	out := make(map[string]float64, len(Signals))
	for _, s := range Signals {
		out[s.Name] = s.Weight * s.Eval(book, in)
	}
	return out
}

// Rank scores every candidate and sorts them by score, highest first.
// Candidates with equal scores keep their catalog order.
func Rank(books []catalog.Book, in Input) []Scored {
	scored := make([]Scored, len(books))
	for i, b := range books {
		scored[i] = Scored{Book: b, Score: Score(b, in)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored
}

// Confidence maps a top score onto a percentage in [MinConfidence, MaxConfidence]
func Confidence(score float64) int {
	c := int(math.Round(score))
	return min(max(c, MinConfidence), MaxConfidence)
}

func isbnMatch(book catalog.Book, in Input) float64 {
	if book.HasISBN(in.Info.ISBNs) {
		return 1
	}
	return 0
}

func logoDetected(_ catalog.Book, in Input) float64 {
	if in.Logos > 0 {
		return 1
	}
	return 0
}

func objectDetected(_ catalog.Book, in Input) float64 {
	if in.Objects > 0 {
		return 1
	}
	return 0
}

func titleSimilarity(book catalog.Book, in Input) float64 {
	if in.Info.Title == "" || book.Title == "" {
		return 0
	}
	return similarity.Best(strings.ToLower(in.Info.Title), strings.ToLower(book.Title))
}

func authorSimilarity(book catalog.Book, in Input) float64 {
	authors := book.AuthorLine()
	if in.Info.Author == "" || authors == "" {
		return 0
	}
	return similarity.Best(strings.ToLower(in.Info.Author), strings.ToLower(authors))
}

func coverQuality(book catalog.Book, _ Input) float64 {
	return CoverPoints[book.ImageLinks.BestCover()]
}
