package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/bookscan/internal/images"
	"github.com/lehigh-university-libraries/bookscan/internal/models"
)

// processImage scans the image and stores the outcome as a new scan session
func (h *Handler) processImage(ctx context.Context, imageData []byte) (*models.ScanSession, error) {
	result, err := h.scanner.ScanImage(ctx, imageData)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.ScanSession{
		ID:        uuid.New().String(),
		Result:    result,
		CreatedAt: now,
		UpdatedAt: now,
	}

	info, err := images.Describe(imageData)
	if err != nil {
		slog.Warn("Failed to get image dimensions", "error", err)
	} else {
		session.Image = &info
	}

	h.scanStore.Set(session)
	slog.Info("Scan session created", "id", session.ID, "matched", result.Matched())

	return session, nil
}
