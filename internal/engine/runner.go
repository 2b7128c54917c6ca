package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omegatable/outreach/internal/domain"
	"github.com/omegatable/outreach/internal/observability"
	"github.com/omegatable/outreach/internal/template"
)

const (
	DefaultPollInterval = 60 * time.Second
	DefaultRetryBackoff = 30 * time.Second
	DefaultMaxAttempts  = 3
)

// RunnerConfig holds the engine's pacing and retry knobs.
type RunnerConfig struct {
	// PollInterval is how long the loop sleeps when the campaign is not
	// ACTIVE before re-reading the status flag.
	PollInterval time.Duration

	// RetryBackoff is the fixed wait between dispatch attempts.
	RetryBackoff time.Duration

	// MaxAttempts bounds dispatch attempts per recipient, first try included.
	MaxAttempts int

	Safety SafetyConfig
}

// DefaultRunnerConfig returns the production pacing defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		PollInterval: DefaultPollInterval,
		RetryBackoff: DefaultRetryBackoff,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

// Deps bundles the runner's collaborators. Store, Mailer, and Renderer are
// required. PDF, Archive, and Progress are optional; a nil PDF generator
// simply sends without attachments even when a PDF template is configured.
type Deps struct {
	Store    Store
	Mailer   Mailer
	Renderer *template.Renderer
	PDF      DocumentGenerator
	Archive  DocumentArchiver
	Progress *ProgressTracker
}

// Runner owns one processing loop per active campaign. Loops are launched
// fire-and-forget from Start and live on the runner's own context, so their
// lifetime is independent of the HTTP request that triggered them.
type Runner struct {
	store     Store
	mailer    Mailer
	renderer  *template.Renderer
	pdf       DocumentGenerator
	archive   DocumentArchiver
	progress  *ProgressTracker
	allocator *Allocator
	cfg       RunnerConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	active map[string]struct{} // campaign ids with a loop in this process
}

// NewRunner creates a campaign runner. Zero-valued config fields fall back
// to the fixed defaults.
func NewRunner(deps Deps, cfg RunnerConfig) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if deps.Renderer == nil {
		deps.Renderer = template.NewRenderer()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:     deps.Store,
		mailer:    deps.Mailer,
		renderer:  deps.Renderer,
		pdf:       deps.PDF,
		archive:   deps.Archive,
		progress:  deps.Progress,
		allocator: NewAllocator(deps.Store),
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		active:    make(map[string]struct{}),
	}
}

// Start validates preconditions, flips the campaign to ACTIVE, and launches
// the processing loop in a goroutine. Returns immediately; async effects are
// observed through subsequent status reads.
//
// Start only succeeds from AWAITING_CONFIRMATION. A stopped or completed
// campaign cannot be restarted through here, which prevents accidental
// re-sends.
func (r *Runner) Start(ctx context.Context, campaignID string) error {
	c, err := r.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("load campaign: %w", err)
	}
	if c.Status != domain.CampaignAwaitingConfirmation {
		return fmt.Errorf("%w (current status %s)", ErrNotAwaitingConfirmation, c.Status)
	}
	if c.EmailTemplate == nil || c.EmailTemplate.Subject == "" || c.EmailTemplate.Content == "" {
		r.logEvent(ctx, domain.EventError, "Missing email template", campaignID, nil)
		return ErrMissingTemplate
	}

	r.mu.Lock()
	if _, running := r.active[campaignID]; running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.active[campaignID] = struct{}{}
	r.mu.Unlock()

	if err := r.store.UpdateCampaignStatus(ctx, campaignID, domain.CampaignActive); err != nil {
		r.mu.Lock()
		delete(r.active, campaignID)
		r.mu.Unlock()
		return fmt.Errorf("activate campaign: %w", err)
	}
	r.logEvent(ctx, domain.EventCampaignStatus, "Campaign started", campaignID, nil)
	log.Printf("[Engine] campaign %s started", campaignID)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.active, campaignID)
			r.mu.Unlock()
		}()
		// Error boundary for the detached loop: log and swallow, never
		// crash the host process.
		if err := r.process(r.ctx, campaignID); err != nil {
			log.Printf("[Engine] campaign %s processing error: %v", campaignID, err)
			r.logEvent(context.Background(), domain.EventError, "Campaign processing error", campaignID,
				map[string]string{"error": err.Error()})
		}
	}()

	return nil
}

// Stop requests a cooperative stop. The loop observes STOPPING at the top of
// its next iteration and transitions the campaign to STOPPED itself, so the
// request can take up to one full job's processing time to take effect.
func (r *Runner) Stop(ctx context.Context, campaignID string) error {
	if err := r.store.UpdateCampaignStatus(ctx, campaignID, domain.CampaignStopping); err != nil {
		return fmt.Errorf("request stop: %w", err)
	}
	r.logEvent(ctx, domain.EventCampaignStatus, "Campaign stopping", campaignID, nil)
	log.Printf("[Engine] campaign %s stop requested", campaignID)
	return nil
}

// Close cancels all loops and waits for them to wind down. Campaigns left
// ACTIVE resume on the next Start only after an operator resets them to
// AWAITING_CONFIRMATION.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

// process is the main loop for one campaign. It runs until the campaign
// reaches a terminal state or the runner shuts down.
func (r *Runner) process(ctx context.Context, campaignID string) error {
	// Templates, quota, and pacing come from this snapshot; only the status
	// flag is re-read each iteration.
	c, err := r.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("load campaign: %w", err)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		// 1. Re-read status; stop cooperatively, idle when not ACTIVE.
		cur, err := r.store.GetCampaign(ctx, campaignID)
		if err != nil {
			return fmt.Errorf("re-read campaign status: %w", err)
		}
		enabled := r.processingEnabled(ctx)
		if cur.Status != domain.CampaignActive || !enabled {
			if cur.Status == domain.CampaignStopping {
				if err := r.transition(ctx, campaignID, domain.CampaignStopped, "Campaign stopped"); err != nil {
					return err
				}
				return nil
			}
			if cur.Status.IsTerminal() {
				// Flipped terminal externally; nothing left to do.
				return nil
			}
			if !r.sleep(ctx, r.cfg.PollInterval) {
				return nil
			}
			continue
		}

		// 2. Quota enforcement on successful jobs.
		if c.Quota > 0 {
			n, err := r.store.CountJobs(ctx, campaignID, domain.JobCompletedSuccess)
			if err != nil {
				return fmt.Errorf("count successful jobs: %w", err)
			}
			if n >= c.Quota {
				if err := r.transition(ctx, campaignID, domain.CampaignCompleted, "Campaign completed (quota reached)"); err != nil {
					return err
				}
				return nil
			}
		}

		// 3. Next unworked lead; exhausted pool completes the campaign.
		lead, err := r.store.NextLead(ctx, campaignID, c.MarketRegion)
		if err != nil {
			return fmt.Errorf("select lead: %w", err)
		}
		if lead == nil {
			if err := r.transition(ctx, campaignID, domain.CampaignCompleted, "Campaign completed (no leads left)"); err != nil {
				return err
			}
			return nil
		}

		// 4-8. One job for this lead.
		if err := r.processLead(ctx, c, lead); err != nil {
			return err
		}

		// 9. Inter-job pacing.
		if c.JobDelaySeconds > 0 {
			if !r.sleep(ctx, time.Duration(c.JobDelaySeconds)*time.Second) {
				return nil
			}
		}
	}
}

// processLead runs one job: create the job row, walk the recipients
// sequentially, finalize the job, and write the lead's terminal status.
// Recipient-level failures are contained; only store failures on the job
// itself propagate up.
func (r *Runner) processLead(ctx context.Context, c *domain.Campaign, lead *domain.Lead) error {
	started := time.Now().UTC()
	job := &domain.CampaignJob{
		ID:         uuid.New().String(),
		CampaignID: c.ID,
		LeadID:     lead.ID,
		Status:     domain.JobProcessing,
		StartedAt:  started,
	}
	if err := r.store.InsertJob(ctx, job); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	recipients := Recipients(lead, r.cfg.Safety)
	jobErrors := false

recipientLoop:
	for _, rec := range recipients {
		switch err := r.sendToRecipient(ctx, c, lead, job, rec); {
		case err == nil:
		case errors.Is(err, errNoSender):
			jobErrors = true
			// No sender left for this job; recipients already sent to are
			// not failed retroactively.
			break recipientLoop
		default:
			jobErrors = true
		}
	}

	final := domain.JobCompletedSuccess
	leadStatus := domain.LeadWorked
	if jobErrors {
		final = domain.JobCompletedWithErrors
		leadStatus = domain.LeadFailed
	}
	if err := r.store.UpdateJob(ctx, job.ID, final, time.Now().UTC()); err != nil {
		return fmt.Errorf("finalize job: %w", err)
	}
	if err := r.store.UpdateLeadStatus(ctx, lead.ID, leadStatus); err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}

	observability.JobsProcessed.WithLabelValues(c.ID, string(final)).Inc()
	observability.JobDuration.WithLabelValues(c.ID).Observe(time.Since(started).Seconds())
	r.progress.IncrJobs(ctx, c.ID)
	log.Printf("[Engine] campaign %s job %s finished %s (lead %d, %d recipients)",
		c.ID, job.ID, final, lead.ID, len(recipients))
	return nil
}

// sendToRecipient handles one recipient end to end: allocate a sender,
// render content, generate the optional PDF, record the task, dispatch with
// bounded retries, and record the outcome. Returns nil on success,
// errNoSender when the pool is exhausted, errRecipientFailed otherwise.
func (r *Runner) sendToRecipient(ctx context.Context, c *domain.Campaign, lead *domain.Lead, job *domain.CampaignJob, rec domain.Recipient) error {
	alloc, err := r.allocator.Allocate(ctx, c.ID)
	if err != nil {
		// Allocator unreachable is a hard error but still contained at the
		// job level: log it and treat the recipient as unservable.
		log.Printf("[Engine] campaign %s: sender allocation failed: %v", c.ID, err)
		r.logEvent(ctx, domain.EventError, "Sender allocation failed", c.ID,
			map[string]string{"error": err.Error(), "recipient": rec.Email})
		return errNoSender
	}
	if alloc == nil {
		r.logEvent(ctx, domain.EventWarning, "No available senders for campaign", c.ID,
			map[string]string{"recipient": rec.Email})
		return errNoSender
	}
	sender := *alloc.Sender

	data := lead.TemplateValues()
	data["recipient_name"] = rec.Name
	data["recipient_email"] = rec.Email
	data["recipient_role"] = string(rec.Role)
	data["sender_name"] = sender.FullName
	data["sender_title"] = sender.Title
	data["sender_email"] = sender.Email

	subject := r.renderer.Render(c.EmailTemplate.Subject, data)
	body := r.renderer.Render(c.EmailTemplate.Content, data)

	attachments := r.buildAttachments(ctx, c, job, data)

	task := &domain.EmailTask{
		ID:               uuid.New().String(),
		CampaignJobID:    job.ID,
		AssignedSenderID: alloc.SenderID,
		ContactEmail:     rec.Email,
		Subject:          subject,
		Body:             body,
		Status:           domain.TaskSending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := r.store.InsertEmailTask(ctx, task); err != nil {
		log.Printf("[Engine] campaign %s: insert email task: %v", c.ID, err)
		r.logEvent(ctx, domain.EventError, "Failed to create email task", c.ID,
			map[string]string{"error": err.Error(), "recipient": rec.Email})
		return errRecipientFailed
	}

	receipt, sendErr := r.dispatch(ctx, sender, rec.Email, subject, body, attachments)
	if sendErr != nil {
		if err := r.store.MarkTaskFailed(ctx, task.ID, sendErr.Error()); err != nil {
			log.Printf("[Engine] campaign %s: mark task %s failed: %v", c.ID, task.ID, err)
		}
		observability.EmailsFailed.WithLabelValues(c.ID).Inc()
		r.progress.IncrFailed(ctx, c.ID)
		r.logEvent(ctx, domain.EventError, "Failed to send email", c.ID, map[string]string{
			"error":     sendErr.Error(),
			"recipient": rec.Email,
			"sender_id": alloc.SenderID,
			"lead_id":   fmt.Sprintf("%d", lead.ID),
		})
		return errRecipientFailed
	}

	now := time.Now().UTC()
	if err := r.store.MarkTaskSent(ctx, task.ID, receipt.MessageID, receipt.ThreadID, now); err != nil {
		log.Printf("[Engine] campaign %s: mark task %s sent: %v", c.ID, task.ID, err)
	}
	// Counters advance only after the provider confirms the send, so failed
	// attempts never count against quota.
	if err := r.store.IncrementSenderCounters(ctx, alloc.SenderID, c.ID, 1); err != nil {
		log.Printf("[Engine] campaign %s: increment sender counters: %v", c.ID, err)
		r.logEvent(ctx, domain.EventError, "Failed to increment sender counters", c.ID,
			map[string]string{"error": err.Error(), "sender_id": alloc.SenderID})
	}
	if err := r.store.InsertCampaignLog(ctx, &domain.CampaignLogEntry{
		ID:          uuid.New().String(),
		CampaignID:  c.ID,
		LeadID:      lead.ID,
		UserID:      c.UserID,
		SenderID:    alloc.SenderID,
		Recipient:   rec.Email,
		ContactName: rec.Name,
		ContactRole: rec.Role,
		Subject:     subject,
		MessageID:   receipt.MessageID,
		ThreadID:    receipt.ThreadID,
		LoggedAt:    now,
	}); err != nil {
		log.Printf("[Engine] campaign %s: insert campaign log: %v", c.ID, err)
		r.logEvent(ctx, domain.EventError, "Failed to insert campaign log", c.ID,
			map[string]string{"error": err.Error(), "recipient": rec.Email})
	}

	observability.EmailsSent.WithLabelValues(c.ID).Inc()
	r.progress.IncrSent(ctx, c.ID)
	log.Printf("[Engine] campaign %s: sent to %s (%s) as %s, message %s",
		c.ID, rec.Email, rec.Role, sender.Email, receipt.MessageID)
	return nil
}

// dispatch attempts the send up to MaxAttempts times with a fixed backoff
// between attempts, returning the receipt of the first success or the last
// error once attempts are exhausted.
func (r *Runner) dispatch(ctx context.Context, sender domain.Sender, to, subject, body string, attachments []Attachment) (*Receipt, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		receipt, err := r.mailer.Send(ctx, sender, to, subject, body, attachments)
		if err == nil {
			return receipt, nil
		}
		lastErr = err
		log.Printf("[Engine] send to %s attempt %d/%d failed: %v", to, attempt, r.cfg.MaxAttempts, err)
		if attempt < r.cfg.MaxAttempts {
			if !r.sleep(ctx, r.cfg.RetryBackoff) {
				break
			}
		}
	}
	return nil, lastErr
}

// buildAttachments renders and generates the campaign's PDF letter when one
// is configured. Generation failure is non-fatal: the send proceeds without
// an attachment.
func (r *Runner) buildAttachments(ctx context.Context, c *domain.Campaign, job *domain.CampaignJob, data map[string]interface{}) []Attachment {
	if c.PDFTemplate == nil || c.PDFTemplate.Content == "" || r.pdf == nil {
		return nil
	}

	pdfHTML := r.renderer.Render(c.PDFTemplate.Content, data)
	pdfBytes, err := r.pdf.RenderPDF(ctx, pdfHTML)
	if err != nil {
		log.Printf("[Engine] campaign %s: PDF generation failed, sending without attachment: %v", c.ID, err)
		r.logEvent(ctx, domain.EventWarning, "PDF generation failed", c.ID,
			map[string]string{"error": err.Error()})
		return nil
	}

	address, _ := data["property_address"].(string)
	if address == "" {
		address = "property"
	}
	filename := fmt.Sprintf("Letter of Intent - %s.pdf", sanitizeFilename(address))

	if r.archive != nil {
		key := fmt.Sprintf("campaigns/%s/%s/%s", c.ID, job.ID, filename)
		if err := r.archive.Archive(ctx, key, pdfBytes); err != nil {
			log.Printf("[Engine] campaign %s: archive PDF %s: %v", c.ID, key, err)
		}
	}

	return []Attachment{{Filename: filename, Content: pdfBytes}}
}

// transition sets the campaign's status and records the change.
func (r *Runner) transition(ctx context.Context, campaignID string, status domain.CampaignStatus, msg string) error {
	if err := r.store.UpdateCampaignStatus(ctx, campaignID, status); err != nil {
		return fmt.Errorf("transition to %s: %w", status, err)
	}
	r.logEvent(ctx, domain.EventCampaignStatus, msg, campaignID, nil)
	log.Printf("[Engine] campaign %s: %s", campaignID, msg)
	return nil
}

// processingEnabled reads the engine-wide pause flag; read errors are logged
// and treated as enabled so a store hiccup cannot silently pause everything.
func (r *Runner) processingEnabled(ctx context.Context) bool {
	enabled, err := r.store.ProcessingEnabled(ctx)
	if err != nil {
		log.Printf("[Engine] read processing flag: %v", err)
		return true
	}
	return enabled
}

// sleep waits for d or until the runner shuts down. Returns false when the
// wait was interrupted.
func (r *Runner) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (r *Runner) logEvent(ctx context.Context, eventType, message, campaignID string, details map[string]string) {
	err := r.store.LogSystemEvent(ctx, &domain.SystemEvent{
		ID:         uuid.New().String(),
		EventType:  eventType,
		Message:    message,
		CampaignID: campaignID,
		Details:    details,
		LoggedAt:   time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[Engine] log system event %q: %v", message, err)
	}
}

var filenamePattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// sanitizeFilename reduces a property address to a safe attachment name.
func sanitizeFilename(s string) string {
	return strings.Trim(filenamePattern.ReplaceAllString(s, "_"), "_")
}
