package recognition

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/lehigh-university-libraries/bookscan/internal/catalog"
	"github.com/lehigh-university-libraries/bookscan/internal/extract"
	"github.com/lehigh-university-libraries/bookscan/internal/vision"
)

type fakeAnalyzer struct {
	annotation *vision.Annotation
	err        error
	calls      int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, image []byte) (*vision.Annotation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.annotation, nil
}

type fakeSearcher struct {
	byISBN    map[string][]catalog.Book
	byText    []catalog.Book
	isbnErr   error
	textErr   error
	isbnCalls []string
	textCalls []string
}

func (f *fakeSearcher) SearchISBN(ctx context.Context, isbn string) ([]catalog.Book, error) {
	f.isbnCalls = append(f.isbnCalls, isbn)
	if f.isbnErr != nil {
		return nil, f.isbnErr
	}
	return f.byISBN[isbn], nil
}

func (f *fakeSearcher) SearchText(ctx context.Context, query string, maxResults int) ([]catalog.Book, error) {
	f.textCalls = append(f.textCalls, query)
	if f.textErr != nil {
		return nil, f.textErr
	}
	return f.byText, nil
}

func textAnnotation(text string) *vision.Annotation {
	return &vision.Annotation{Text: text, Logos: []vision.Label{}, Objects: []vision.Label{}}
}

var pngImage = base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nfake"))

func TestScanISBNShortCircuit(t *testing.T) {
	analyzer := &fakeAnalyzer{annotation: textAnnotation("HARRY POTTER\nand the Prisoner of Azkaban\n9780439708180")}
	book := catalog.Book{
		Title:       "Harry Potter and the Prisoner of Azkaban",
		Identifiers: []catalog.Identifier{{Type: catalog.IdentifierISBN13, Value: "9780439708180"}},
	}
	searcher := &fakeSearcher{byISBN: map[string][]catalog.Book{"9780439708180": {book}}}

	result, err := New(analyzer, searcher, 0).Scan(context.Background(), pngImage)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if !reflect.DeepEqual(searcher.isbnCalls, []string{"9780439708180"}) {
		t.Errorf("isbn calls = %v", searcher.isbnCalls)
	}
	if len(searcher.textCalls) != 0 {
		t.Errorf("text search should not run after an ISBN hit, got %v", searcher.textCalls)
	}
	if result.Book == nil || result.Book.Title != book.Title {
		t.Fatalf("book = %+v", result.Book)
	}
	if result.AnalysisData.Confidence == nil || *result.AnalysisData.Confidence != 95 {
		t.Errorf("confidence = %v, want 95", result.AnalysisData.Confidence)
	}
	if !reflect.DeepEqual(result.AnalysisData.ExtractedISBNs, []string{"9780439708180"}) {
		t.Errorf("extracted isbns = %v", result.AnalysisData.ExtractedISBNs)
	}
	if result.AnalysisData.Outcome != "exact_match" {
		t.Errorf("outcome = %q", result.AnalysisData.Outcome)
	}
}

func TestScanStopsAtFirstISBNHit(t *testing.T) {
	analyzer := &fakeAnalyzer{annotation: textAnnotation("ISBN 0-00-000000-0\nISBN 978-0-13-468599-1\nISBN 978-0-439-70818-0")}
	searcher := &fakeSearcher{byISBN: map[string][]catalog.Book{
		"9780134685991": {{Title: "Effective Java"}},
		"9780439708180": {{Title: "Harry Potter"}},
	}}

	result, err := New(analyzer, searcher, 0).Scan(context.Background(), pngImage)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if want := []string{"0000000000", "9780134685991"}; !reflect.DeepEqual(searcher.isbnCalls, want) {
		t.Errorf("isbn calls = %v, want %v", searcher.isbnCalls, want)
	}
	if result.Book == nil || result.Book.Title != "Effective Java" {
		t.Errorf("book = %+v", result.Book)
	}
}

func TestScanISBNMissFallsBackToText(t *testing.T) {
	analyzer := &fakeAnalyzer{annotation: textAnnotation("The Left Hand of Darkness\nby Ursula K. Le Guin\nISBN 9780441478125")}
	searcher := &fakeSearcher{
		byISBN: map[string][]catalog.Book{},
		byText: []catalog.Book{
			{Title: "Darkness Visible", Authors: []string{"William Styron"}},
			{
				Title:      "The Left Hand of Darkness",
				Authors:    []string{"Ursula K. Le Guin"},
				ImageLinks: catalog.ImageLinks{Thumbnail: "t"},
			},
		},
	}

	result, err := New(analyzer, searcher, 0).Scan(context.Background(), pngImage)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(searcher.textCalls) != 1 {
		t.Fatalf("text calls = %v", searcher.textCalls)
	}
	if result.Book == nil || result.Book.Title != "The Left Hand of Darkness" {
		t.Fatalf("book = %+v", result.Book)
	}
	c := *result.AnalysisData.Confidence
	if c < 60 || c > 90 {
		t.Errorf("confidence %d outside [60, 90]", c)
	}
	if result.AnalysisData.Outcome != "candidates" || result.AnalysisData.Candidates != 2 {
		t.Errorf("analysis data = %+v", result.AnalysisData)
	}
}

func TestScanSingleLineOCRPicksCoveredEdition(t *testing.T) {
	genuine := catalog.Book{
		Title:      "Harry Potter and the Sorcerer's Stone",
		Authors:    []string{"J.K. Rowling"},
		ImageLinks: catalog.ImageLinks{Medium: "m"},
	}
	var books []catalog.Book
	for i := range 18 {
		books = append(books, catalog.Book{Title: fmt.Sprintf("Fantastic Beasts Annotated %d", i)})
	}
	books = append(books, catalog.Book{Title: "Harry Potter"}, genuine)

	analyzer := &fakeAnalyzer{annotation: textAnnotation("Harry Potter J K Rowling")}
	searcher := &fakeSearcher{byText: books}

	result, err := New(analyzer, searcher, 0).Scan(context.Background(), pngImage)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(searcher.isbnCalls) != 0 {
		t.Errorf("unexpected ISBN lookups %v", searcher.isbnCalls)
	}
	if result.Book == nil || result.Book.Title != genuine.Title {
		t.Fatalf("book = %+v, want genuine edition", result.Book)
	}
	if got := *result.AnalysisData.Confidence; got != 60 {
		t.Errorf("confidence = %d, want 60", got)
	}
	if result.AnalysisData.Outcome != "candidates" || result.AnalysisData.Candidates != 20 {
		t.Errorf("analysis data = %+v", result.AnalysisData)
	}
}

func TestScanNoCandidates(t *testing.T) {
	raw := "AN OBSCURE PAMPHLET\nby Nobody In Particular"
	analyzer := &fakeAnalyzer{annotation: textAnnotation(raw)}
	searcher := &fakeSearcher{}

	result, err := New(analyzer, searcher, 0).Scan(context.Background(), pngImage)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Book != nil {
		t.Errorf("expected no book, got %+v", result.Book)
	}
	if result.Text != raw {
		t.Errorf("text = %q, want raw OCR text", result.Text)
	}
	if result.AnalysisData.Confidence != nil {
		t.Errorf("confidence should be unset, got %d", *result.AnalysisData.Confidence)
	}
}

func TestScanZeroScoreIsNoMatch(t *testing.T) {
	analyzer := &fakeAnalyzer{annotation: textAnnotation("zzz")}
	searcher := &fakeSearcher{byText: []catalog.Book{{ID: "untitled"}}}

	result, err := New(analyzer, searcher, 0).Scan(context.Background(), pngImage)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Book != nil || result.AnalysisData.Confidence != nil {
		t.Errorf("expected no match, got %+v", result)
	}
}

func TestScanEmptyTextSkipsCatalog(t *testing.T) {
	analyzer := &fakeAnalyzer{annotation: textAnnotation("")}
	searcher := &fakeSearcher{}

	result, err := New(analyzer, searcher, 0).Scan(context.Background(), pngImage)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(searcher.isbnCalls)+len(searcher.textCalls) != 0 {
		t.Errorf("catalog should not be queried without text")
	}
	if result.Book != nil || result.AnalysisData.Outcome != "no_results" {
		t.Errorf("result = %+v", result)
	}
}

func TestScanNoImage(t *testing.T) {
	inputs := []string{"", "   ", "data:image/jpeg;base64,", "not base64 at all!"}
	for _, in := range inputs {
		analyzer := &fakeAnalyzer{annotation: textAnnotation("x")}
		searcher := &fakeSearcher{}

		_, err := New(analyzer, searcher, 0).Scan(context.Background(), in)
		if !errors.Is(err, ErrNoImage) {
			t.Errorf("Scan(%q) error = %v, want ErrNoImage", in, err)
		}
		if analyzer.calls != 0 {
			t.Errorf("Scan(%q) called the analyzer", in)
		}
	}
}

func TestScanUpstreamErrors(t *testing.T) {
	boom := errors.New("upstream exploded")

	t.Run("vision", func(t *testing.T) {
		searcher := &fakeSearcher{}
		_, err := New(&fakeAnalyzer{err: boom}, searcher, 0).Scan(context.Background(), pngImage)
		if !errors.Is(err, ErrVision) || !errors.Is(err, boom) {
			t.Errorf("error = %v, want ErrVision wrapping the cause", err)
		}
		if len(searcher.isbnCalls)+len(searcher.textCalls) != 0 {
			t.Error("catalog queried after a vision failure")
		}
	})

	t.Run("catalog isbn", func(t *testing.T) {
		analyzer := &fakeAnalyzer{annotation: textAnnotation("9780439708180")}
		_, err := New(analyzer, &fakeSearcher{isbnErr: boom}, 0).Scan(context.Background(), pngImage)
		if !errors.Is(err, ErrCatalog) || !errors.Is(err, boom) {
			t.Errorf("error = %v, want ErrCatalog wrapping the cause", err)
		}
	})

	t.Run("catalog text", func(t *testing.T) {
		analyzer := &fakeAnalyzer{annotation: textAnnotation("Dune\nFrank Herbert")}
		_, err := New(analyzer, &fakeSearcher{textErr: boom}, 0).Scan(context.Background(), pngImage)
		if !errors.Is(err, ErrCatalog) {
			t.Errorf("error = %v, want ErrCatalog", err)
		}
	})
}

func TestScanCarriesVisualSignals(t *testing.T) {
	analyzer := &fakeAnalyzer{annotation: &vision.Annotation{
		Text:           "Title: Dune\nAuthor: Frank Herbert",
		Logos:          []vision.Label{{Description: "Ace Books", Score: 0.8}},
		Objects:        []vision.Label{{Description: "Book", Score: 0.9}, {Description: "Person", Score: 0.6}},
		DominantColors: []vision.Color{{Red: 200, Green: 120, Blue: 40, Score: 0.4}},
	}}
	searcher := &fakeSearcher{byText: []catalog.Book{{Title: "Dune", Authors: []string{"Frank Herbert"}}}}

	result, err := New(analyzer, searcher, 0).Scan(context.Background(), pngImage)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.AnalysisData.Logos != 1 || result.AnalysisData.Objects != 2 {
		t.Errorf("logos/objects = %d/%d", result.AnalysisData.Logos, result.AnalysisData.Objects)
	}
	if len(result.AnalysisData.DominantColors) != 1 {
		t.Errorf("dominant colors = %v", result.AnalysisData.DominantColors)
	}
	// 15 title + 10 author + 8 logo + 7 object
	if result.AnalysisData.TopScore != 40 || *result.AnalysisData.Confidence != 60 {
		t.Errorf("top score %v confidence %d", result.AnalysisData.TopScore, *result.AnalysisData.Confidence)
	}
}

func TestFetchCandidatesQuery(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		info     extract.Info
		want     string
	}{
		{"title and author", "raw", extract.Info{Title: "Dune", Author: "Frank Herbert"}, "Dune Frank Herbert"},
		{"title only", "raw", extract.Info{Title: "Dune"}, "Dune"},
		{"raw text", "  DUNE HERBERT  ", extract.Info{}, "DUNE HERBERT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{byText: []catalog.Book{{Title: "Dune"}}}
			outcome, err := FetchCandidates(context.Background(), searcher, tt.detected, tt.info, 20)
			if err != nil {
				t.Fatalf("FetchCandidates: %v", err)
			}
			c, ok := outcome.(Candidates)
			if !ok {
				t.Fatalf("outcome = %T, want Candidates", outcome)
			}
			if c.Query != tt.want || !reflect.DeepEqual(searcher.textCalls, []string{tt.want}) {
				t.Errorf("query = %q (calls %v), want %q", c.Query, searcher.textCalls, tt.want)
			}
		})
	}
}

func TestFetchCandidatesCapsResults(t *testing.T) {
	books := make([]catalog.Book, 30)
	searcher := &fakeSearcher{byText: books}

	outcome, err := FetchCandidates(context.Background(), searcher, "anything", extract.Info{}, 20)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(outcome.(Candidates).Books); got != 20 {
		t.Errorf("candidates = %d, want 20", got)
	}
}

func TestDecodeImage(t *testing.T) {
	want := []byte("cover bytes")
	std := base64.StdEncoding.EncodeToString(want)

	tests := map[string]string{
		"plain":    std,
		"data url": "data:image/jpeg;base64," + std,
		"unpadded": base64.RawStdEncoding.EncodeToString(want),
		"url safe": base64.URLEncoding.EncodeToString(want),
	}
	for name, in := range tests {
		got, err := DecodeImage(in)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if string(got) != string(want) {
			t.Errorf("%s: got %q", name, got)
		}
	}
}
