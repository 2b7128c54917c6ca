package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/omegatable/outreach/internal/domain"
	"github.com/omegatable/outreach/internal/engine"
	"github.com/omegatable/outreach/internal/ingest"
)

// AdminStore is the query surface the HTTP layer needs beyond the engine's
// own store contract.
type AdminStore interface {
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, limit, offset int) ([]domain.Campaign, error)
	CreateCampaign(ctx context.Context, c *domain.Campaign) (string, error)

	ListSenders(ctx context.Context) ([]domain.Sender, error)
	CreateSender(ctx context.Context, sender *domain.Sender) (string, error)
	DeleteSender(ctx context.Context, id string) error
	AllocateSenders(ctx context.Context, campaignID string, senderIDs []string, dailyQuota int) error

	ListLeads(ctx context.Context, marketRegion string, limit, offset int) ([]domain.Lead, error)

	ProcessingEnabled(ctx context.Context) (bool, error)
	SetProcessingEnabled(ctx context.Context, enabled bool) error
}

// CampaignRunner is the engine surface the HTTP layer drives.
type CampaignRunner interface {
	Start(ctx context.Context, campaignID string) error
	Stop(ctx context.Context, campaignID string) error
}

// LeadImporter ingests an uploaded CSV stream.
type LeadImporter interface {
	Import(ctx context.Context, r io.Reader, marketRegion string) (*ingest.Result, error)
}

// ProgressReader reads live campaign counters.
type ProgressReader interface {
	Snapshot(ctx context.Context, campaignID string) (*engine.Progress, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	store    AdminStore
	runner   CampaignRunner
	importer LeadImporter
	progress ProgressReader
	started  time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(store AdminStore, runner CampaignRunner, importer LeadImporter, progress ProgressReader) *Handlers {
	return &Handlers{
		store:    store,
		runner:   runner,
		importer: importer,
		progress: progress,
		started:  time.Now(),
	}
}

// HealthCheck reports process liveness and the engine pause flag.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	enabled, err := h.store.ProcessingEnabled(r.Context())
	if err != nil {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":             status,
		"timestamp":          time.Now(),
		"uptime_seconds":     int(time.Since(h.started).Seconds()),
		"processing_enabled": enabled,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
