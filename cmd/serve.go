package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/bookscan/internal/handlers"
	"github.com/lehigh-university-libraries/bookscan/internal/recognition"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the cover scanning API server",
		Long: `Starts the bookscan HTTP API.

POST a cover image to /api/scan as JSON ({"image": "<base64>"} or {"image_url": "..."})
or as a multipart upload, then review and confirm the scan under /api/scans/{id}.`,
		Example: `  # Start server on the configured port (default 8888)
  bookscan serve

  # Start server on custom port
  bookscan serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			recognizer, err := recognition.NewFromConfig(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			handler := handlers.New(recognizer, cfg.Server.MaxUploadBytes,
				handlers.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Bookscan API available", "addr", addr, "url", "http://localhost"+addr,
					"vision_provider", cfg.Vision.Provider, "catalog_backend", cfg.Catalog.Backend)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8888, "Port to listen on (overrides server.port)")

	return cmd
}
