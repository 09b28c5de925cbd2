package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lehigh-university-libraries/bookscan/internal/images"
	"github.com/lehigh-university-libraries/bookscan/internal/models"
	"github.com/lehigh-university-libraries/bookscan/internal/recognition"
	"github.com/lehigh-university-libraries/bookscan/internal/storage"
)

// DefaultMaxUploadBytes limits an uploaded image when no limit is configured
const DefaultMaxUploadBytes = 10 << 20

// defaultRemoteTimeout bounds an image_url download when no client is configured
const defaultRemoteTimeout = 30 * time.Second

// Scanner identifies the book on a cover image
type Scanner interface {
	ScanImage(ctx context.Context, image []byte) (*recognition.Result, error)
}

type Handler struct {
	scanStore      *storage.ScanStore
	scanner        Scanner
	maxUploadBytes int64
	remote         *images.Fetcher
}

// Option configures a Handler
type Option func(*Handler)

// WithHTTPClient sets the client used to download image_url sources
func WithHTTPClient(client *http.Client) Option {
	return func(h *Handler) {
		h.remote.HTTPClient = client
	}
}

func New(scanner Scanner, maxUploadBytes int64, opts ...Option) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	h := &Handler{
		scanStore:      storage.New(),
		scanner:        scanner,
		maxUploadBytes: maxUploadBytes,
		remote: &images.Fetcher{
			HTTPClient: &http.Client{Timeout: defaultRemoteTimeout},
			MaxBytes:   maxUploadBytes,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router registers the API routes
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthcheck", h.HandleHealthcheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scan", h.HandleScan).Methods(http.MethodPost)
	api.HandleFunc("/scans", h.HandleListScans).Methods(http.MethodGet)
	api.HandleFunc("/scans/{id}", h.HandleGetScan).Methods(http.MethodGet)
	api.HandleFunc("/scans/{id}", h.HandleConfirmScan).Methods(http.MethodPut)
	api.HandleFunc("/scans/{id}", h.HandleDeleteScan).Methods(http.MethodDelete)

	r.Use(logRequests)
	return r
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK"))
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("Request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	http.Error(w, message, code)
}

// writeScanError maps a failed scan onto an HTTP status
func (h *Handler) writeScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recognition.ErrNoImage):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, recognition.ErrVision), errors.Is(err, recognition.ErrCatalog):
		h.writeError(w, "Scan failed: "+err.Error(), http.StatusBadGateway)
	default:
		h.writeError(w, "Scan failed: "+err.Error(), http.StatusInternalServerError)
	}
}

// Session helpers
func (h *Handler) getScanOrError(w http.ResponseWriter, id string) (*models.ScanSession, bool) {
	session, exists := h.scanStore.Get(id)
	if !exists {
		h.writeError(w, "Scan not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}
