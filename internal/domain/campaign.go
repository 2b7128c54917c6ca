package domain

import "time"

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	// CampaignAwaitingConfirmation is the initial state set by whoever
	// creates the campaign. Start only succeeds from here.
	CampaignAwaitingConfirmation CampaignStatus = "AWAITING_CONFIRMATION"
	CampaignActive               CampaignStatus = "ACTIVE"
	// CampaignStopping is a cooperative stop request; the processing loop
	// observes it at the top of its next iteration.
	CampaignStopping  CampaignStatus = "STOPPING"
	CampaignStopped   CampaignStatus = "STOPPED"
	CampaignCompleted CampaignStatus = "COMPLETED"
)

// IsTerminal returns true if the campaign is in a final state. Terminal
// campaigns never auto-resume; a fresh start is rejected unless the status
// is explicitly reset to AWAITING_CONFIRMATION.
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignStopped || s == CampaignCompleted
}

// Template is a subject/content pair used for email bodies and PDF letters.
type Template struct {
	ID      string `json:"id" db:"id"`
	Subject string `json:"subject" db:"subject"`
	Content string `json:"content" db:"content"`
}

// Campaign represents one outbound offer-letter run.
type Campaign struct {
	ID     string         `json:"id" db:"id"`
	UserID string         `json:"user_id" db:"user_id"`
	Name   string         `json:"name" db:"name"`
	Status CampaignStatus `json:"status" db:"status"`

	// Quota is the maximum number of COMPLETED_SUCCESS jobs before the
	// campaign completes. Zero means unlimited.
	Quota int `json:"quota" db:"quota"`

	// MarketRegion optionally restricts lead selection.
	MarketRegion string `json:"market_region" db:"market_region"`

	// JobDelaySeconds paces the loop between jobs. Zero disables pacing.
	JobDelaySeconds int `json:"job_delay_seconds" db:"job_delay_seconds"`

	// EmailTemplate is required to process the campaign. PDFTemplate is
	// optional; when present each recipient gets a rendered PDF attachment.
	EmailTemplate *Template `json:"email_template,omitempty"`
	PDFTemplate   *Template `json:"pdf_template,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SystemEvent is a durable operational log record.
type SystemEvent struct {
	ID         string            `json:"id" db:"id"`
	EventType  string            `json:"event_type" db:"event_type"`
	Message    string            `json:"message" db:"message"`
	CampaignID string            `json:"campaign_id,omitempty" db:"campaign_id"`
	Details    map[string]string `json:"details,omitempty"`
	LoggedAt   time.Time         `json:"logged_at" db:"logged_at"`
}

// System event types.
const (
	EventError          = "ERROR"
	EventWarning        = "WARNING"
	EventCampaignStatus = "CAMPAIGN_STATUS"
)
