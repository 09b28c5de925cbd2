package evalcmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lehigh-university-libraries/bookscan/internal/evaluation"
)

func executeInspect(out io.Writer, datasetPath string, limit int) error {
	items, err := evaluation.LoadDataset(datasetPath)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	total := len(items)
	if limit > 0 && limit < total {
		items = items[:limit]
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Image", "Expected ISBN", "Expected title", "Expected author"})
	for _, item := range items {
		tw.AppendRow(table.Row{item.ID, item.ImagePath, item.ExpectedISBN, item.ExpectedTitle, item.ExpectedAuthor})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d items", len(items), total)})

	fmt.Fprintln(out, tw.Render())
	return nil
}
