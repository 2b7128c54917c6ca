package domain

import "time"

// JobStatus enumerates the lifecycle of a campaign job.
type JobStatus string

const (
	JobProcessing          JobStatus = "PROCESSING"
	JobCompletedSuccess    JobStatus = "COMPLETED_SUCCESS"
	JobCompletedWithErrors JobStatus = "COMPLETED_WITH_ERRORS"
)

// IsTerminal returns true once the job has its one terminal status.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompletedSuccess || s == JobCompletedWithErrors
}

// CampaignJob is one unit of work: a (campaign, lead) pairing. Exactly one
// terminal status transition happens per job.
type CampaignJob struct {
	ID          string     `json:"id" db:"id"`
	CampaignID  string     `json:"campaign_id" db:"campaign_id"`
	LeadID      int64      `json:"lead_id" db:"lead_id"`
	Status      JobStatus  `json:"status" db:"status"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// TaskStatus enumerates the lifecycle of a single outbound email attempt.
type TaskStatus string

const (
	TaskSending TaskStatus = "SENDING"
	TaskSent    TaskStatus = "SENT"
	TaskFailed  TaskStatus = "FAILED"
)

// EmailTask is one outbound message to one recipient for one job. The row is
// created before dispatch so a record exists even when every attempt fails,
// and it is updated exactly once to a terminal status.
type EmailTask struct {
	ID               string     `json:"id" db:"id"`
	CampaignJobID    string     `json:"campaign_job_id" db:"campaign_job_id"`
	AssignedSenderID string     `json:"assigned_sender_id" db:"assigned_sender_id"`
	ContactEmail     string     `json:"contact_email" db:"contact_email"`
	Subject          string     `json:"subject" db:"subject"`
	Body             string     `json:"body" db:"body"`
	Status           TaskStatus `json:"status" db:"status"`
	Error            string     `json:"error,omitempty" db:"error"`
	MessageID        string     `json:"message_id,omitempty" db:"message_id"`
	ThreadID         string     `json:"thread_id,omitempty" db:"thread_id"`
	SentAt           *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// CampaignLogEntry links a confirmed send to everything needed to
// reconstruct it: campaign, lead, recipient, sender, provider ids.
type CampaignLogEntry struct {
	ID           string      `json:"id" db:"id"`
	CampaignID   string      `json:"campaign_id" db:"campaign_id"`
	LeadID       int64       `json:"lead_id" db:"lead_id"`
	UserID       string      `json:"user_id" db:"user_id"`
	SenderID     string      `json:"sender_id" db:"sender_id"`
	Recipient    string      `json:"recipient" db:"recipient"`
	ContactName  string      `json:"contact_name" db:"contact_name"`
	ContactRole  ContactRole `json:"contact_role" db:"contact_role"`
	Subject      string      `json:"subject" db:"subject"`
	MessageID    string      `json:"message_id" db:"message_id"`
	ThreadID     string      `json:"thread_id" db:"thread_id"`
	LoggedAt     time.Time   `json:"logged_at" db:"logged_at"`
}
