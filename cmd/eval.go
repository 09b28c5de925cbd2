package cmd

import (
	"github.com/lehigh-university-libraries/bookscan/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Cover recognition evaluation tools",
		Long: `Evaluation tools for measuring how often a cover scan picks the right book.

Supports building datasets of cover images from known ISBNs, running the configured
vision provider and catalog backend over a dataset, and reporting on saved runs.`,
	}

	cmd.AddCommand(evalcmd.NewFetchCoversCmd(currentConfig))
	cmd.AddCommand(evalcmd.NewRunCmd(currentConfig))
	cmd.AddCommand(evalcmd.NewReportCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd())

	return cmd
}
