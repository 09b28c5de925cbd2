package evalcmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/bookscan/internal/evaluation"
	"gopkg.in/yaml.v3"
)

func executeReport(out io.Writer, resultsPath, format string) error {
	results, err := evaluation.LoadResults(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	switch format {
	case "text":
		return printTextReport(out, results)
	case "csv":
		return printCSVReport(out, results)
	case "yaml":
		return yaml.NewEncoder(out).Encode(results)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(out io.Writer, results *evaluation.Results) error {
	c := results.Config
	fmt.Fprintf(out, "Vision provider: %s", c.VisionProvider)
	if c.Model != "" {
		fmt.Fprintf(out, " (%s)", c.Model)
	}
	fmt.Fprintf(out, "\nCatalog backend: %s\nDataset:         %s\nRun at:          %s\n\n", c.CatalogBackend, c.DatasetPath, c.Timestamp)

	fmt.Fprintln(out, evaluation.RenderSummary(results.Summary))
	fmt.Fprintln(out)
	fmt.Fprintln(out, evaluation.RenderItems(results.Items))
	return nil
}

func printCSVReport(out io.Writer, results *evaluation.Results) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	header := []string{"ID", "Outcome", "Matched", "Matched Title", "Confidence", "Expected ISBN", "ISBN Hit", "Title Similarity", "Duration", "Error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range results.Items {
		row := []string{
			r.ID,
			r.Outcome,
			strconv.FormatBool(r.Matched),
			r.MatchedTitle,
			strconv.Itoa(r.Confidence),
			r.ExpectedISBN,
			strconv.FormatBool(r.ISBNHit),
			fmt.Sprintf("%.4f", r.TitleSimilarity),
			r.Duration.String(),
			strings.ReplaceAll(r.Error, "\n", " "),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}
