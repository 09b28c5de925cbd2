package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lehigh-university-libraries/bookscan/internal/images"
	"github.com/lehigh-university-libraries/bookscan/internal/recognition"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newScanCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "scan <image path or URL>",
		Short: "Identify the book on a single cover image",
		Example: `  bookscan scan ./cover.jpg
  bookscan scan https://covers.openlibrary.org/b/isbn/9780439708180-L.jpg --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = "yaml"
				if isatty.IsTerminal(os.Stdout.Fd()) {
					format = "table"
				}
			}

			data, err := images.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			recognizer, err := recognition.NewFromConfig(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			result, err := recognizer.ScanImage(cmd.Context(), data)
			if err != nil {
				return err
			}

			return printScanResult(cmd.OutOrStdout(), result, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Output format (table, json, yaml); default table on a terminal, yaml otherwise")

	return cmd
}

func printScanResult(out io.Writer, result *recognition.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		return yaml.NewEncoder(out).Encode(result)
	case "table":
		fmt.Fprintln(out, renderScanTable(result))
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func renderScanTable(result *recognition.Result) string {
	data := result.AnalysisData

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendRow(table.Row{"Outcome", data.Outcome})
	if result.Book != nil {
		tw.AppendRow(table.Row{"Title", result.Book.Title})
		tw.AppendRow(table.Row{"Authors", result.Book.AuthorLine()})
		tw.AppendRow(table.Row{"ISBNs", strings.Join(result.Book.NormalizedISBNs(), ", ")})
		if result.Book.Publisher != "" {
			tw.AppendRow(table.Row{"Publisher", result.Book.Publisher})
		}
	} else {
		tw.AppendRow(table.Row{"Title", "(no match)"})
	}
	if data.Confidence != nil {
		tw.AppendRow(table.Row{"Confidence", *data.Confidence})
	}
	tw.AppendRow(table.Row{"Candidates", data.Candidates})
	tw.AppendRow(table.Row{"Extracted ISBNs", strings.Join(data.ExtractedISBNs, ", ")})
	tw.AppendRow(table.Row{"Logos", data.Logos})
	tw.AppendRow(table.Row{"Objects", data.Objects})
	if len(data.DominantColors) > 0 {
		hex := make([]string, 0, len(data.DominantColors))
		for _, c := range data.DominantColors {
			hex = append(hex, c.Hex())
		}
		tw.AppendRow(table.Row{"Colors", strings.Join(hex, " ")})
	}
	return tw.Render()
}
