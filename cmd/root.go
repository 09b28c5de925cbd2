package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/bookscan/internal/config"
	"github.com/spf13/cobra"
)

// cfg is loaded before any subcommand runs
var cfg *config.Config

func NewRootCmd() *cobra.Command {
	var cfgFile string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "bookscan",
		Short: "Identify books from photos of their covers",
		Long: `Bookscan identifies a book from a photo of its cover.

The cover is read by a vision provider (Google Cloud Vision or an LLM), ISBNs and a
title/author guess are extracted from the text, and candidates from Google Books or
Open Library are scored to pick the most likely edition.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			loaded, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				loaded.LogLevel = logLevel
			}

			level, err := config.ParseLevel(loaded.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", loaded.LogLevel, err)
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			cfg = loaded
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./bookscan.yaml or $HOME/.bookscan/bookscan.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}

func currentConfig() *config.Config {
	return cfg
}
