package models

import (
	"time"

	"github.com/lehigh-university-libraries/bookscan/internal/catalog"
	"github.com/lehigh-university-libraries/bookscan/internal/images"
	"github.com/lehigh-university-libraries/bookscan/internal/recognition"
)

// ScanSession represents one cover scan awaiting or holding the user's confirmation
type ScanSession struct {
	ID        string              `json:"id"`
	Image     *images.Info        `json:"image,omitempty"`
	Result    *recognition.Result `json:"result"`
	Confirmed bool                `json:"confirmed"`
	// ConfirmedBook is the book the user accepted; it may differ from Result.Book
	ConfirmedBook *catalog.Book `json:"confirmed_book,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Confirmation is the body of a scan confirmation request
type Confirmation struct {
	Confirmed bool          `json:"confirmed"`
	Book      *catalog.Book `json:"book,omitempty"`
}
