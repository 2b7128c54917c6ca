package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/omegatable/outreach/internal/config"
	"github.com/omegatable/outreach/internal/domain"
	"github.com/omegatable/outreach/internal/engine"
)

const gmailSendScope = "https://www.googleapis.com/auth/gmail.send"

// GmailClient sends mail through the Gmail API using domain-wide delegation.
// One service account key covers every sender identity; each send mints a
// token impersonating that sender's mailbox, so the message lands in their
// real Sent folder and replies thread normally.
type GmailClient struct {
	credentials []byte
	baseURL     string
	timeout     time.Duration

	// clientFor builds an authenticated HTTP client impersonating the given
	// mailbox. Swappable for tests.
	clientFor func(ctx context.Context, impersonate string) (*http.Client, error)
}

// NewGmailClient reads the service account key and returns a client. The key
// file must belong to a service account granted the gmail.send scope via
// domain-wide delegation.
func NewGmailClient(cfg config.GmailConfig) (*GmailClient, error) {
	credentials, err := os.ReadFile(cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}

	c := &GmailClient{
		credentials: credentials,
		baseURL:     "https://gmail.googleapis.com",
		timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	c.clientFor = c.delegatedClient
	return c, nil
}

func (c *GmailClient) delegatedClient(ctx context.Context, impersonate string) (*http.Client, error) {
	jwtCfg, err := google.JWTConfigFromJSON(c.credentials, gmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	jwtCfg.Subject = impersonate

	client := jwtCfg.Client(ctx)
	client.Timeout = c.timeout
	return client, nil
}

type gmailSendResponse struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// Send builds the raw RFC 2822 message, base64url-encodes it, and posts it
// to the impersonated sender's messages.send endpoint.
func (c *GmailClient) Send(ctx context.Context, sender domain.Sender, to, subject, htmlBody string, attachments []engine.Attachment) (*engine.Receipt, error) {
	httpClient, err := c.clientFor(ctx, sender.Email)
	if err != nil {
		return nil, err
	}

	raw := buildMIME(sender, to, subject, htmlBody, attachments)
	payload, err := json.Marshal(map[string]string{
		"raw": base64.URLEncoding.EncodeToString(raw),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal send request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/gmail/v1/users/%s/messages/send", c.baseURL, url.PathEscape(sender.Email))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gmail API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var sent gmailSendResponse
	if err := json.Unmarshal(respBody, &sent); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &engine.Receipt{MessageID: sent.ID, ThreadID: sent.ThreadID}, nil
}
