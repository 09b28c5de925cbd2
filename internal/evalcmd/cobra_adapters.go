package evalcmd

import (
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/bookscan/internal/config"
	"github.com/spf13/cobra"
)

// ConfigFunc returns the configuration loaded by the root command
type ConfigFunc func() *config.Config

// NewRunCmd creates the run command for scanning a labelled dataset
func NewRunCmd(cfg ConfigFunc) *cobra.Command {
	var datasetPath string
	var outputPath string
	var sampleSize int
	var concurrency int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan every cover in a dataset and score the matches",
		Long: `Scan every cover image in a JSONL or Parquet dataset with the configured vision
provider and catalog backend, then compare the chosen books against the expected ISBNs and titles.

Each dataset item has the fields id, image_path, expected_isbn, expected_title and expected_author.`,
		Example: `  # Evaluate 10 covers with Cloud Vision and Google Books
  bookscan eval run --dataset ./covers/dataset.jsonl --sample 10

  # Evaluate with a local Ollama model against Open Library
  BOOKSCAN_VISION_PROVIDER=ollama BOOKSCAN_CATALOG_BACKEND=openlibrary bookscan eval run --dataset ./covers/dataset.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(datasetPath); os.IsNotExist(err) {
				return fmt.Errorf("dataset file not found: %s", datasetPath)
			}
			return executeRun(cmd.Context(), cmd.OutOrStdout(), cfg(), datasetPath, outputPath, sampleSize, concurrency)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to a .jsonl or .parquet dataset (required)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Results file (default evals/<provider>-<timestamp>.yaml)")
	cmd.Flags().IntVar(&sampleSize, "sample", -1, "Number of items to evaluate (-1 for all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of concurrent scans")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var resultsPath string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a saved evaluation",
		Example: `  bookscan eval report --results evals/cloudvision-2024-05-01_12-00-00.yaml
  bookscan eval report --results evals/run.yaml --format csv > run.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd.OutOrStdout(), resultsPath, format)
		},
	}

	cmd.Flags().StringVar(&resultsPath, "results", "", "Results YAML written by eval run (required)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, csv, yaml)")

	_ = cmd.MarkFlagRequired("results")
	return cmd
}

// NewFetchCoversCmd creates the fetch-covers command for building a dataset from ISBNs
func NewFetchCoversCmd(cfg ConfigFunc) *cobra.Command {
	var isbns []string
	var isbnFile string
	var outputDir string
	var format string

	cmd := &cobra.Command{
		Use:   "fetch-covers",
		Short: "Download cover images for ISBNs and write a dataset",
		Long: `Download a cover image for each ISBN from Open Library, falling back to Google Books,
and record it as a dataset item with the ISBN and catalog title as the expected answer.`,
		Example: `  bookscan eval fetch-covers --isbn 9780439708180 --isbn 9780441172719 --output ./covers
  bookscan eval fetch-covers --isbn-file isbns.txt --output ./covers --format parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if isbnFile != "" {
				fromFile, err := readISBNFile(isbnFile)
				if err != nil {
					return err
				}
				isbns = append(isbns, fromFile...)
			}
			if len(isbns) == 0 {
				return fmt.Errorf("no ISBNs given; use --isbn or --isbn-file")
			}
			return executeFetchCovers(cmd.Context(), cmd.OutOrStdout(), cfg(), isbns, outputDir, format)
		},
	}

	cmd.Flags().StringSliceVar(&isbns, "isbn", nil, "ISBN to fetch (repeatable)")
	cmd.Flags().StringVar(&isbnFile, "isbn-file", "", "File with one ISBN per line")
	cmd.Flags().StringVar(&outputDir, "output", "./covers", "Output directory for images and the dataset")
	cmd.Flags().StringVar(&format, "format", "jsonl", "Dataset format (jsonl, parquet)")

	return cmd
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the items of a dataset",
		Example: `  bookscan eval inspect --dataset ./covers/dataset.parquet --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeInspect(cmd.OutOrStdout(), datasetPath, limit)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to a .jsonl or .parquet dataset (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of items to show (0 for all)")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
