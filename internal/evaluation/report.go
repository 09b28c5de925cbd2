package evaluation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderSummary renders aggregate metrics as a table
func RenderSummary(s Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Total items", s.Total},
		{"Matched", s.Matched},
		{"No match", s.NoMatch},
		{"Failures", s.Failures},
		{"ISBN accuracy", fmt.Sprintf("%.1f%% (%d/%d)", s.ISBNAccuracy*100, s.ISBNCorrect, s.ISBNEvaluated)},
		{"Mean title similarity", fmt.Sprintf("%.3f", s.MeanTitleSimilarity)},
		{"Mean confidence", fmt.Sprintf("%.1f", s.MeanConfidence)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// RenderItems renders one row per item
func RenderItems(items []ItemResult) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Outcome", "Matched title", "Conf", "ISBN", "Title sim", "Time"})

	for _, r := range items {
		outcome := r.Outcome
		if r.Error != "" {
			outcome = "error: " + truncate(r.Error, 40)
		}
		isbn := "-"
		if r.ExpectedISBN != "" {
			isbn = strconv.FormatBool(r.ISBNHit)
		}
		conf := "-"
		if r.Matched {
			conf = strconv.Itoa(r.Confidence)
		}
		tw.AppendRow(table.Row{
			r.ID,
			outcome,
			truncate(r.MatchedTitle, 50),
			conf,
			isbn,
			fmt.Sprintf("%.2f", r.TitleSimilarity),
			r.Duration.Round(time.Millisecond).String(),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	return tw.Render()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
