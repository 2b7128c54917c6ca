package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/omegatable/outreach/internal/domain"
	"github.com/omegatable/outreach/internal/engine"
)

func (s *Store) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var emailID, emailSubject, emailContent sql.NullString
	var pdfID, pdfContent sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, c.user_id, c.name, c.status, c.quota,
		       COALESCE(c.market_region,''), c.job_delay_seconds,
		       et.id, et.subject, et.content,
		       pt.id, pt.content,
		       c.created_at, c.updated_at
		FROM campaigns c
		LEFT JOIN templates et ON et.id = c.email_template_id
		LEFT JOIN templates pt ON pt.id = c.pdf_template_id
		WHERE c.id = $1
	`, id).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Status, &c.Quota,
		&c.MarketRegion, &c.JobDelaySeconds,
		&emailID, &emailSubject, &emailContent,
		&pdfID, &pdfContent,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, engine.ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}

	if emailID.Valid {
		c.EmailTemplate = &domain.Template{
			ID:      emailID.String,
			Subject: emailSubject.String,
			Content: emailContent.String,
		}
	}
	if pdfID.Valid {
		c.PDFTemplate = &domain.Template{
			ID:      pdfID.String,
			Content: pdfContent.String,
		}
	}
	return c, nil
}

func (s *Store) UpdateCampaignStatus(ctx context.Context, id string, status domain.CampaignStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE campaigns SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrCampaignNotFound
	}
	return nil
}

func (s *Store) CountJobs(ctx context.Context, campaignID string, status domain.JobStatus) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM campaign_jobs WHERE campaign_id = $1 AND status = $2
	`, campaignID, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

func (s *Store) InsertJob(ctx context.Context, job *domain.CampaignJob) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaign_jobs (id, campaign_id, lead_id, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`, job.ID, job.CampaignID, job.LeadID, job.Status, job.StartedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *Store) UpdateJob(ctx context.Context, jobID string, status domain.JobStatus, completedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE campaign_jobs SET status = $1, completed_at = $2 WHERE id = $3
	`, status, completedAt, jobID)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (s *Store) InsertEmailTask(ctx context.Context, task *domain.EmailTask) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_tasks
			(id, campaign_job_id, assigned_sender_id, contact_email,
			 subject, body, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, task.ID, task.CampaignJobID, task.AssignedSenderID, task.ContactEmail,
		task.Subject, task.Body, task.Status, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert email task: %w", err)
	}
	return nil
}

func (s *Store) MarkTaskSent(ctx context.Context, taskID, messageID, threadID string, sentAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE email_tasks
		SET status = $1, message_id = $2, thread_id = $3, sent_at = $4, updated_at = NOW()
		WHERE id = $5
	`, domain.TaskSent, messageID, threadID, sentAt, taskID)
	if err != nil {
		return fmt.Errorf("mark task sent: %w", err)
	}
	return nil
}

func (s *Store) MarkTaskFailed(ctx context.Context, taskID, errText string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE email_tasks
		SET status = $1, error = $2, updated_at = NOW()
		WHERE id = $3
	`, domain.TaskFailed, errText, taskID)
	if err != nil {
		return fmt.Errorf("mark task failed: %w", err)
	}
	return nil
}

func (s *Store) InsertCampaignLog(ctx context.Context, entry *domain.CampaignLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaign_logs
			(id, campaign_id, lead_id, user_id, sender_id, recipient,
			 contact_name, contact_role, subject, message_id, thread_id, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, entry.ID, entry.CampaignID, entry.LeadID, entry.UserID, entry.SenderID,
		entry.Recipient, entry.ContactName, entry.ContactRole, entry.Subject,
		entry.MessageID, entry.ThreadID, entry.LoggedAt)
	if err != nil {
		return fmt.Errorf("insert campaign log: %w", err)
	}
	return nil
}

// CreateCampaign inserts a campaign in AWAITING_CONFIRMATION state.
func (s *Store) CreateCampaign(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = domain.CampaignAwaitingConfirmation
	}

	var emailTemplateID, pdfTemplateID interface{}
	if c.EmailTemplate != nil {
		id, err := s.upsertTemplate(ctx, c.EmailTemplate)
		if err != nil {
			return "", err
		}
		emailTemplateID = id
	}
	if c.PDFTemplate != nil {
		id, err := s.upsertTemplate(ctx, c.PDFTemplate)
		if err != nil {
			return "", err
		}
		pdfTemplateID = id
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaigns
			(id, user_id, name, status, quota, market_region, job_delay_seconds,
			 email_template_id, pdf_template_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`, c.ID, c.UserID, c.Name, c.Status, c.Quota, c.MarketRegion,
		c.JobDelaySeconds, emailTemplateID, pdfTemplateID)
	if err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}
	return c.ID, nil
}

func (s *Store) upsertTemplate(ctx context.Context, t *domain.Template) (string, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (id, subject, content)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET subject = EXCLUDED.subject, content = EXCLUDED.content
	`, t.ID, t.Subject, t.Content)
	if err != nil {
		return "", fmt.Errorf("upsert template: %w", err)
	}
	return t.ID, nil
}

// ListCampaigns returns campaigns newest first.
func (s *Store) ListCampaigns(ctx context.Context, limit, offset int) ([]domain.Campaign, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, status, quota, COALESCE(market_region,''),
		       job_delay_seconds, created_at, updated_at
		FROM campaigns
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Status, &c.Quota,
			&c.MarketRegion, &c.JobDelaySeconds, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) LogSystemEvent(ctx context.Context, event *domain.SystemEvent) error {
	var campaignID interface{}
	if event.CampaignID != "" {
		campaignID = event.CampaignID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO system_events (id, event_type, message, campaign_id, details, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, event.EventType, event.Message, campaignID,
		detailsJSON(event.Details), event.LoggedAt)
	if err != nil {
		return fmt.Errorf("log system event: %w", err)
	}
	return nil
}

// detailsJSON serializes event details for the jsonb column; nil maps store
// as SQL NULL.
func detailsJSON(details map[string]string) interface{} {
	if len(details) == 0 {
		return nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	return b
}

// ProcessingEnabled reads the engine-wide pause flag. An absent row means
// enabled.
func (s *Store) ProcessingEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := s.db.QueryRowContext(ctx, `
		SELECT enabled FROM engine_status WHERE id = 1
	`).Scan(&enabled)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read engine status: %w", err)
	}
	return enabled, nil
}

// SetProcessingEnabled flips the engine-wide pause flag.
func (s *Store) SetProcessingEnabled(ctx context.Context, enabled bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engine_status (id, enabled, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW()
	`, enabled)
	if err != nil {
		return fmt.Errorf("set engine status: %w", err)
	}
	return nil
}
