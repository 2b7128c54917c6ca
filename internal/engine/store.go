package engine

import (
	"context"
	"time"

	"github.com/omegatable/outreach/internal/domain"
)

// Store defines the data access contract the engine needs. Implementations
// must be safe for concurrent use: multiple campaign loops share one Store.
type Store interface {
	// GetCampaign returns a campaign with its templates joined. Returns
	// ErrCampaignNotFound if the id does not exist.
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)

	// UpdateCampaignStatus transitions a campaign's status.
	UpdateCampaignStatus(ctx context.Context, id string, status domain.CampaignStatus) error

	// CountJobs returns the number of jobs for the campaign in the given
	// status. Used for quota enforcement.
	CountJobs(ctx context.Context, campaignID string, status domain.JobStatus) (int, error)

	// NextLead returns the next lead without a job row for the campaign,
	// optionally filtered by market region. Returns (nil, nil) when the
	// pool is exhausted. Leads already referenced by any job row for the
	// campaign are never returned, so a crashed-and-restarted loop cannot
	// re-select an in-flight or completed lead.
	NextLead(ctx context.Context, campaignID, marketRegion string) (*domain.Lead, error)

	// InsertJob creates a job row in PROCESSING state.
	InsertJob(ctx context.Context, job *domain.CampaignJob) error

	// UpdateJob applies the job's one terminal status transition.
	UpdateJob(ctx context.Context, jobID string, status domain.JobStatus, completedAt time.Time) error

	// UpdateLeadStatus writes the lead's campaign-scoped terminal status.
	UpdateLeadStatus(ctx context.Context, leadID int64, status domain.LeadStatus) error

	// EligibleAllocations returns the campaign's sender allocations that
	// are under their daily quota and out of cooldown at the given instant,
	// ordered by total_sent ascending, with sender identities joined.
	EligibleAllocations(ctx context.Context, campaignID string, now time.Time) ([]domain.SenderAllocation, error)

	// IncrementSenderCounters atomically advances sent_today and total_sent
	// for the (sender, campaign) allocation. Must be a store-side increment,
	// not a read-modify-write, since the eligibility read and this write are
	// not in one transaction and other loops may race on the same sender.
	IncrementSenderCounters(ctx context.Context, senderID, campaignID string, delta int) error

	// InsertEmailTask creates a task row in SENDING state, before dispatch,
	// so a record exists even when every attempt fails.
	InsertEmailTask(ctx context.Context, task *domain.EmailTask) error

	// MarkTaskSent applies the task's terminal SENT transition with the
	// provider's message and thread identifiers.
	MarkTaskSent(ctx context.Context, taskID, messageID, threadID string, sentAt time.Time) error

	// MarkTaskFailed applies the task's terminal FAILED transition with the
	// captured error text.
	MarkTaskFailed(ctx context.Context, taskID, errText string) error

	// InsertCampaignLog appends a durable record linking campaign, lead,
	// recipient, sender, and provider message id for a confirmed send.
	InsertCampaignLog(ctx context.Context, entry *domain.CampaignLogEntry) error

	// LogSystemEvent appends an operational event record.
	LogSystemEvent(ctx context.Context, event *domain.SystemEvent) error

	// ProcessingEnabled reads the engine-wide pause flag. When false,
	// active loops idle at their poll interval without taking new jobs.
	ProcessingEnabled(ctx context.Context) (bool, error)
}
