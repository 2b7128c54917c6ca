package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/omegatable/outreach/internal/domain"
	"github.com/omegatable/outreach/internal/engine"
)

// ListCampaigns returns campaigns newest first.
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	campaigns, err := h.store.ListCampaigns(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"campaigns": campaigns})
}

type createCampaignRequest struct {
	UserID          string           `json:"user_id"`
	Name            string           `json:"name"`
	Quota           int              `json:"quota"`
	MarketRegion    string           `json:"market_region"`
	JobDelaySeconds int              `json:"job_delay_seconds"`
	EmailTemplate   *domain.Template `json:"email_template"`
	PDFTemplate     *domain.Template `json:"pdf_template"`
}

// CreateCampaign inserts a campaign in AWAITING_CONFIRMATION state. The
// campaign does nothing until its start endpoint is hit.
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.EmailTemplate == nil || req.EmailTemplate.Subject == "" || req.EmailTemplate.Content == "" {
		respondError(w, http.StatusBadRequest, "email template with subject and content is required")
		return
	}

	c := &domain.Campaign{
		UserID:          req.UserID,
		Name:            req.Name,
		Quota:           req.Quota,
		MarketRegion:    req.MarketRegion,
		JobDelaySeconds: req.JobDelaySeconds,
		EmailTemplate:   req.EmailTemplate,
		PDFTemplate:     req.PDFTemplate,
	}
	id, err := h.store.CreateCampaign(r.Context(), c)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"id":     id,
		"status": string(domain.CampaignAwaitingConfirmation),
	})
}

// GetCampaign returns one campaign with templates joined.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.store.GetCampaign(r.Context(), id)
	if errors.Is(err, engine.ErrCampaignNotFound) {
		respondError(w, http.StatusNotFound, "campaign not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// StartCampaign confirms the campaign and launches its processing loop. The
// call returns as soon as the loop is launched; progress is observed through
// status and progress reads, not this response.
func (h *Handlers) StartCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.runner.Start(r.Context(), id)
	switch {
	case err == nil:
		respondJSON(w, http.StatusAccepted, map[string]string{
			"id":     id,
			"status": string(domain.CampaignActive),
		})
	case errors.Is(err, engine.ErrCampaignNotFound):
		respondError(w, http.StatusNotFound, "campaign not found")
	case errors.Is(err, engine.ErrNotAwaitingConfirmation),
		errors.Is(err, engine.ErrAlreadyRunning):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrMissingTemplate):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// StopCampaign requests a cooperative stop. The loop finishes its current
// job before transitioning to STOPPED.
func (h *Handlers) StopCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.runner.Stop(r.Context(), id); err != nil {
		if errors.Is(err, engine.ErrCampaignNotFound) {
			respondError(w, http.StatusNotFound, "campaign not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{
		"id":     id,
		"status": string(domain.CampaignStopping),
	})
}

// GetCampaignProgress returns the live Redis counters for a campaign.
func (h *Handlers) GetCampaignProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if h.progress == nil {
		respondError(w, http.StatusServiceUnavailable, "progress tracking not configured")
		return
	}
	p, err := h.progress.Snapshot(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}
