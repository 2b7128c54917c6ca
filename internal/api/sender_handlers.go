package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/omegatable/outreach/internal/domain"
)

// ListSenders returns every sender identity.
func (h *Handlers) ListSenders(w http.ResponseWriter, r *http.Request) {
	senders, err := h.store.ListSenders(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"senders": senders})
}

type createSenderRequest struct {
	FullName string `json:"full_name"`
	Title    string `json:"title"`
	Email    string `json:"email"`
}

// CreateSender registers a mailbox identity the engine may impersonate.
func (h *Handlers) CreateSender(w http.ResponseWriter, r *http.Request) {
	var req createSenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FullName == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "full_name and a valid email are required")
		return
	}

	id, err := h.store.CreateSender(r.Context(), &domain.Sender{
		FullName: req.FullName,
		Title:    req.Title,
		Email:    strings.ToLower(req.Email),
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// DeleteSender removes a sender and its campaign allocations.
func (h *Handlers) DeleteSender(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteSender(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id, "deleted": "true"})
}

type allocateSendersRequest struct {
	SenderIDs  []string `json:"sender_ids"`
	DailyQuota int      `json:"daily_quota"`
}

// AllocateSenders attaches senders to a campaign with a daily quota.
func (h *Handlers) AllocateSenders(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "id")

	var req allocateSendersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.SenderIDs) == 0 {
		respondError(w, http.StatusBadRequest, "sender_ids is required")
		return
	}
	if req.DailyQuota <= 0 {
		respondError(w, http.StatusBadRequest, "daily_quota must be positive")
		return
	}

	if err := h.store.AllocateSenders(r.Context(), campaignID, req.SenderIDs, req.DailyQuota); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"campaign_id": campaignID,
		"allocated":   len(req.SenderIDs),
	})
}
