package evalcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/bookscan/internal/config"
	"github.com/lehigh-university-libraries/bookscan/internal/evaluation"
	"github.com/lehigh-university-libraries/bookscan/internal/recognition"
)

func executeRun(ctx context.Context, out io.Writer, cfg *config.Config, datasetPath, outputPath string, sampleSize, concurrency int) error {
	slog.Info("Starting evaluation run", "dataset", datasetPath, "provider", cfg.Vision.Provider, "catalog", cfg.Catalog.Backend)

	items, err := evaluation.LoadDataset(datasetPath)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	if sampleSize > 0 && sampleSize < len(items) {
		items = items[:sampleSize]
	}
	slog.Info("Dataset loaded", "items", len(items))

	recognizer, err := recognition.NewFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create recognizer: %w", err)
	}

	return runWithScanner(ctx, out, recognizer, cfg, items, datasetPath, outputPath, concurrency)
}

func runWithScanner(ctx context.Context, out io.Writer, scanner evaluation.Scanner, cfg *config.Config, items []evaluation.DatasetItem, datasetPath, outputPath string, concurrency int) error {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	if outputPath == "" {
		outputPath = filepath.Join("evals", fmt.Sprintf("%s-%s.yaml", cfg.Vision.Provider, timestamp))
	}

	slog.Info("Processing items", "concurrency", concurrency)
	itemResults := evaluation.Run(ctx, scanner, items, concurrency)

	results := &evaluation.Results{
		Config: evaluation.RunConfig{
			VisionProvider: cfg.Vision.Provider,
			Model:          cfg.VisionModel(),
			CatalogBackend: cfg.Catalog.Backend,
			DatasetPath:    datasetPath,
			SampleSize:     len(items),
			Concurrency:    concurrency,
			Timestamp:      timestamp,
		},
		Summary: evaluation.Summarize(itemResults),
		Items:   itemResults,
	}

	if err := evaluation.SaveResults(results, outputPath); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	fmt.Fprintln(out, evaluation.RenderSummary(results.Summary))
	fmt.Fprintf(out, "\nResults saved to: %s\n", outputPath)
	fmt.Fprintf(out, "Generate detailed report with:\n  bookscan eval report --results %s\n", outputPath)

	return nil
}
