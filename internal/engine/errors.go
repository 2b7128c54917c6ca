package engine

import "errors"

// Sentinel errors for the engine.
var (
	// ErrCampaignNotFound is returned by Store implementations when the
	// campaign id does not exist.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrNotAwaitingConfirmation rejects a start on a campaign that is not
	// in AWAITING_CONFIRMATION. The campaign's status is left untouched.
	ErrNotAwaitingConfirmation = errors.New("campaign must be awaiting confirmation to start")

	// ErrMissingTemplate rejects a start when the campaign has no usable
	// email template.
	ErrMissingTemplate = errors.New("campaign has no email template")

	// ErrAlreadyRunning rejects a start when this process already has a
	// loop for the campaign.
	ErrAlreadyRunning = errors.New("campaign loop already running")
)

// errRecipientFailed marks a contained per-recipient failure: recorded on
// the task, sets the job error flag, never aborts the campaign loop.
var errRecipientFailed = errors.New("recipient send failed")

// errNoSender means no allocation is eligible (quotas exhausted or all in
// cooldown). The caller stops trying further recipients for the job.
var errNoSender = errors.New("no eligible sender available")
