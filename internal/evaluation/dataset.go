package evaluation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/bookscan/internal/images"
	"github.com/parquet-go/parquet-go"
)

// DatasetItem is one labelled cover photograph
type DatasetItem struct {
	ID             string `json:"id" parquet:"id"`
	ImagePath      string `json:"image_path" parquet:"image_path"`
	ExpectedISBN   string `json:"expected_isbn,omitempty" parquet:"expected_isbn"`
	ExpectedTitle  string `json:"expected_title,omitempty" parquet:"expected_title"`
	ExpectedAuthor string `json:"expected_author,omitempty" parquet:"expected_author"`
}

// LoadDataset loads items from a JSONL or Parquet file.
// Relative image paths are resolved against the dataset's directory.
func LoadDataset(path string) ([]DatasetItem, error) {
	var (
		items []DatasetItem
		err   error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		items, err = loadParquet(path)
	case ".jsonl", ".json":
		items, err = loadJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i := range items {
		if items[i].ImagePath != "" && !filepath.IsAbs(items[i].ImagePath) && !images.IsURL(items[i].ImagePath) {
			items[i].ImagePath = filepath.Join(dir, items[i].ImagePath)
		}
	}

	slog.Debug("Loaded dataset", "path", path, "items", len(items))
	return items, nil
}

func loadJSONL(path string) ([]DatasetItem, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var items []DatasetItem
	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item DatasetItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	return items, nil
}

func loadParquet(path string) ([]DatasetItem, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[DatasetItem](pf)
	defer reader.Close()

	items := make([]DatasetItem, 0, pf.NumRows())
	rows := make([]DatasetItem, 128) // Read in batches
	for {
		n, err := reader.Read(rows)
		items = append(items, rows[:n]...)
		if err != nil {
			break
		}
	}

	return items, nil
}

// AppendDatasetItem appends a single item to a JSONL dataset file.
// The file is created if it doesn't exist.
func AppendDatasetItem(item DatasetItem, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	line, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode dataset item: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write dataset item: %w", err)
	}

	return nil
}

// SaveDatasetParquet writes items to a Parquet file
func SaveDatasetParquet(items []DatasetItem, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := parquet.WriteFile(path, items); err != nil {
		return fmt.Errorf("failed to write parquet dataset: %w", err)
	}
	return nil
}
