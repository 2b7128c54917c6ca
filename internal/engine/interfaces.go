package engine

import (
	"context"

	"github.com/omegatable/outreach/internal/domain"
)

// Attachment is a file to include with an outbound message.
type Attachment struct {
	Filename string
	Content  []byte
}

// Receipt holds the provider identifiers returned for a confirmed send.
type Receipt struct {
	MessageID string
	ThreadID  string
}

// Mailer dispatches one email as the given sender identity. Implementations
// wrap the provider transport (impersonated Gmail in production).
type Mailer interface {
	Send(ctx context.Context, sender domain.Sender, to, subject, htmlBody string, attachments []Attachment) (*Receipt, error)
}

// DocumentGenerator renders HTML into PDF bytes. Generation failures are
// non-fatal to processing: the send proceeds without an attachment.
type DocumentGenerator interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// DocumentArchiver stores generated PDFs for later retrieval. Best effort:
// archive failures are logged and never block a send.
type DocumentArchiver interface {
	Archive(ctx context.Context, key string, pdf []byte) error
}
