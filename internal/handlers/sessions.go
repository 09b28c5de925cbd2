package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lehigh-university-libraries/bookscan/internal/models"
)

func (h *Handler) HandleListScans(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.scanStore.List())
}

func (h *Handler) HandleGetScan(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getScanOrError(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	h.writeJSON(w, session)
}

// HandleConfirmScan records whether the user accepted the match, optionally with a corrected book
func (h *Handler) HandleConfirmScan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var confirmation models.Confirmation
	if err := json.NewDecoder(r.Body).Decode(&confirmation); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	session, ok := h.scanStore.Update(id, func(s *models.ScanSession) {
		s.Confirmed = confirmation.Confirmed
		s.ConfirmedBook = nil
		switch {
		case !confirmation.Confirmed:
		case confirmation.Book != nil:
			s.ConfirmedBook = confirmation.Book
		case s.Result != nil && s.Result.Book != nil:
			s.ConfirmedBook = s.Result.Book
		}
		s.UpdatedAt = time.Now()
	})
	if !ok {
		h.writeError(w, "Scan not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, session)
}

func (h *Handler) HandleDeleteScan(w http.ResponseWriter, r *http.Request) {
	if !h.scanStore.Delete(mux.Vars(r)["id"]) {
		h.writeError(w, "Scan not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
