package evalcmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/bookscan/internal/catalog"
	"github.com/lehigh-university-libraries/bookscan/internal/config"
	"github.com/lehigh-university-libraries/bookscan/internal/evaluation"
	"github.com/lehigh-university-libraries/bookscan/internal/images"
	"github.com/lehigh-university-libraries/bookscan/internal/recognition"
)

type fixedScanner struct{}

func (fixedScanner) ScanImage(ctx context.Context, image []byte) (*recognition.Result, error) {
	confidence := 95
	return &recognition.Result{
		Text: string(image),
		Book: &catalog.Book{
			Title:       "Dune",
			Authors:     []string{"Frank Herbert"},
			Identifiers: []catalog.Identifier{{Type: catalog.IdentifierISBN13, Value: "9780441172719"}},
		},
		AnalysisData: recognition.AnalysisData{Confidence: &confidence, Outcome: "exact_match"},
	}, nil
}

func writeDataset(t *testing.T, dir string) string {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "dune.jpg"), []byte("cover"), 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "dataset.jsonl")
	item := evaluation.DatasetItem{ID: "dune", ImagePath: "dune.jpg", ExpectedISBN: "9780441172719", ExpectedTitle: "Dune"}
	if err := evaluation.AppendDatasetItem(item, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunWritesResultsAndReport(t *testing.T) {
	dir := t.TempDir()
	datasetPath := writeDataset(t, dir)
	items, err := evaluation.LoadDataset(datasetPath)
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	outputPath := filepath.Join(dir, "evals", "run.yaml")
	var out bytes.Buffer
	if err := runWithScanner(context.Background(), &out, fixedScanner{}, &cfg, items, datasetPath, outputPath, 2); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), outputPath) {
		t.Errorf("output does not mention results path:\n%s", out.String())
	}

	results, err := evaluation.LoadResults(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	if results.Summary.ISBNCorrect != 1 || results.Config.VisionProvider != config.ProviderCloudVision {
		t.Errorf("results = %+v", results)
	}

	tests := []struct {
		format string
		want   string
	}{
		{"text", "Dune"},
		{"yaml", "isbn_correct: 1"},
		{"csv", "Title Similarity"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := executeReport(&buf, outputPath, tt.format); err != nil {
				t.Fatalf("report: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("%s report missing %q:\n%s", tt.format, tt.want, buf.String())
			}
		})
	}

	if err := executeReport(&bytes.Buffer{}, outputPath, "html"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestCSVReportRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	results := &evaluation.Results{Items: []evaluation.ItemResult{
		{ID: "a", Matched: true, Confidence: 90},
		{ID: "b", Error: "vision failed:\nquota"},
	}}
	if err := evaluation.SaveResults(results, path); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := executeReport(&buf, path, "csv"); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[2][9] != "vision failed: quota" {
		t.Errorf("error column = %q", rows[2][9])
	}
}

func TestInspect(t *testing.T) {
	datasetPath := writeDataset(t, t.TempDir())
	var buf bytes.Buffer
	if err := executeInspect(&buf, datasetPath, 0); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "9780441172719") || !strings.Contains(buf.String(), "1 of 1 items") {
		t.Errorf("inspect output:\n%s", buf.String())
	}

	if err := executeInspect(&buf, filepath.Join(t.TempDir(), "missing.jsonl"), 0); err == nil {
		t.Error("expected error for missing dataset")
	}
}

type titleSearcher struct{}

func (titleSearcher) SearchISBN(ctx context.Context, isbn string) ([]catalog.Book, error) {
	return []catalog.Book{{Title: "Harry Potter and the Sorcerer's Stone", Authors: []string{"J. K. Rowling"}}}, nil
}

func (titleSearcher) SearchText(ctx context.Context, query string, maxResults int) ([]catalog.Book, error) {
	return nil, nil
}

func TestFetchCovers(t *testing.T) {
	cover := bytes.Repeat([]byte{0xff}, 4000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "0000000000") {
			http.NotFound(w, r)
			return
		}
		w.Write(cover)
	}))
	defer server.Close()

	for _, format := range []string{"jsonl", "parquet"} {
		t.Run(format, func(t *testing.T) {
			fetcher := images.NewFetcher(titleSearcher{})
			fetcher.CoversURL = server.URL

			dir := t.TempDir()
			var out bytes.Buffer
			err := fetchCovers(context.Background(), &out, fetcher, titleSearcher{}, []string{"978-0-439-70818-0", "0000000000"}, dir, format, time.Duration(0))
			if err != nil {
				t.Fatalf("fetchCovers: %v", err)
			}
			if !strings.Contains(out.String(), "Fetched 1 covers (1 failed)") {
				t.Errorf("output = %q", out.String())
			}

			items, err := evaluation.LoadDataset(filepath.Join(dir, "dataset."+format))
			if err != nil {
				t.Fatal(err)
			}
			if len(items) != 1 {
				t.Fatalf("items = %d, want 1", len(items))
			}
			if items[0].ExpectedISBN != "9780439708180" || items[0].ExpectedAuthor != "J. K. Rowling" {
				t.Errorf("item = %+v", items[0])
			}
		})
	}
}

func TestReadISBNFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isbns.txt")
	content := "# covers to fetch\n9780439708180\n\n  9780441172719  \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := readISBNFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1] != "9780441172719" {
		t.Errorf("isbns = %v", got)
	}
}
