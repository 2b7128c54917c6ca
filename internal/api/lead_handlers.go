package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/omegatable/outreach/internal/ingest"
)

// maxUploadBytes bounds lead CSV uploads.
const maxUploadBytes = 256 << 20

// UploadLeads ingests a multipart CSV upload. The optional market_region
// form field backfills rows whose region column is empty.
func (h *Handlers) UploadLeads(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	marketRegion := r.FormValue("market_region")

	result, err := h.importer.Import(r.Context(), file, marketRegion)
	switch {
	case errors.Is(err, ingest.ErrEmptyFile),
		errors.Is(err, ingest.ErrNoAddressColumn),
		errors.Is(err, ingest.ErrNoContactColumn):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ListLeads returns leads, optionally filtered by market region.
func (h *Handlers) ListLeads(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	marketRegion := r.URL.Query().Get("market_region")

	leads, err := h.store.ListLeads(r.Context(), marketRegion, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"leads": leads})
}

// PauseEngine sets the engine-wide pause flag; active loops idle until
// resumed.
func (h *Handlers) PauseEngine(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SetProcessingEnabled(r.Context(), false); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"processing_enabled": false})
}

// ResumeEngine clears the engine-wide pause flag.
func (h *Handlers) ResumeEngine(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SetProcessingEnabled(r.Context(), true); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"processing_enabled": true})
}
