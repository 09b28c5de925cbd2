package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/bookscan/internal/images"
	"github.com/lehigh-university-libraries/bookscan/internal/recognition"
)

type scanRequest struct {
	// Image is base64 data, optionally as a data URL
	Image string `json:"image"`
	// ImageURL is downloaded by the server when Image is empty, subject to the upload limit
	ImageURL string `json:"image_url"`
}

type scanResponse struct {
	ID     string              `json:"id"`
	Result *recognition.Result `json:"result"`
}

func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	var (
		imageData []byte
		err       error
	)

	// Check if this is a JSON request with base64 image data
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		imageData, err = h.readJSONImage(w, r)
	} else {
		imageData, err = h.readFileUpload(r)
	}
	if err != nil {
		if errors.Is(err, recognition.ErrNoImage) {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.writeError(w, "Failed to read image: "+err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.processImage(r.Context(), imageData)
	if err != nil {
		h.writeScanError(w, err)
		return
	}

	h.writeJSONStatus(w, http.StatusCreated, scanResponse{ID: session.ID, Result: session.Result})
}

func (h *Handler) readJSONImage(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	// base64 inflates the payload by a third
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes*4/3+4096)

	var request scanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if request.Image == "" && request.ImageURL != "" {
		if !images.IsURL(request.ImageURL) {
			return nil, fmt.Errorf("%w: image_url must be an http or https URL", recognition.ErrNoImage)
		}
		return h.remote.Fetch(r.Context(), request.ImageURL)
	}

	return recognition.DecodeImage(request.Image)
}

func (h *Handler) readFileUpload(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		file, _, err = r.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("%w: expected a multipart file field named file or image", recognition.ErrNoImage)
		}
	}
	defer file.Close()

	return images.LoadFrom(file, h.maxUploadBytes)
}
