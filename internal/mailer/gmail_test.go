package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/omegatable/outreach/internal/domain"
	"github.com/omegatable/outreach/internal/engine"
)

func testSender() domain.Sender {
	return domain.Sender{
		ID:       "sender-1",
		FullName: "Alex Morgan",
		Title:    "Acquisitions",
		Email:    "alex@omegatable.com",
	}
}

func TestBuildMIMEPlain(t *testing.T) {
	raw := string(buildMIME(testSender(), "dana@example.com", "Offer for 12 Oak St", "<p>Hi Dana</p>", nil))

	for _, want := range []string{
		"From: Alex Morgan <alex@omegatable.com>\r\n",
		"To: dana@example.com\r\n",
		"Subject: Offer for 12 Oak St\r\n",
		"MIME-Version: 1.0\r\n",
		"Content-Type: text/html; charset=utf-8\r\n",
		"<p>Hi Dana</p>",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q:\n%s", want, raw)
		}
	}
	if strings.Contains(raw, "multipart/mixed") {
		t.Error("plain message declared multipart")
	}
}

func TestBuildMIMEWithAttachment(t *testing.T) {
	pdf := []byte("%PDF-1.4 letter content")
	raw := string(buildMIME(testSender(), "dana@example.com", "Offer", "<p>Hi</p>", []engine.Attachment{
		{Filename: "Letter of Intent - 12_Oak_St.pdf", Content: pdf},
	}))

	for _, want := range []string{
		"Content-Type: multipart/mixed; boundary=",
		`Content-Disposition: attachment; filename="Letter of Intent - 12_Oak_St.pdf"`,
		"Content-Transfer-Encoding: base64\r\n",
		base64.StdEncoding.EncodeToString(pdf),
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if !strings.HasSuffix(raw, "--"+mimeBoundary+"--\r\n") {
		t.Error("message missing closing boundary")
	}
}

func TestBuildMIMEWrapsLongAttachments(t *testing.T) {
	big := make([]byte, 4096)
	for i := range big {
		big[i] = byte(i % 251)
	}
	raw := string(buildMIME(testSender(), "dana@example.com", "Offer", "<p>Hi</p>", []engine.Attachment{
		{Filename: "letter.pdf", Content: big},
	}))

	inBody := false
	for _, line := range strings.Split(raw, "\r\n") {
		if line == "Content-Transfer-Encoding: base64" {
			inBody = true
			continue
		}
		if inBody && strings.HasPrefix(line, "--") {
			break
		}
		if inBody && len(line) > 76 {
			t.Fatalf("base64 line exceeds 76 chars: %d", len(line))
		}
	}
}

func TestGmailSend(t *testing.T) {
	var gotPath string
	var gotRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		var req map[string]string
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		gotRaw = req["raw"]
		json.NewEncoder(w).Encode(map[string]string{"id": "msg-123", "threadId": "thread-456"})
	}))
	defer srv.Close()

	c := &GmailClient{
		baseURL: srv.URL,
		clientFor: func(context.Context, string) (*http.Client, error) {
			return srv.Client(), nil
		},
	}

	receipt, err := c.Send(context.Background(), testSender(), "dana@example.com", "Offer", "<p>Hi</p>", nil)
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if receipt.MessageID != "msg-123" || receipt.ThreadID != "thread-456" {
		t.Errorf("receipt = %+v", receipt)
	}
	if want := "/gmail/v1/users/alex@omegatable.com/messages/send"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}

	decoded, err := base64.URLEncoding.DecodeString(gotRaw)
	if err != nil {
		t.Fatalf("raw payload not base64url: %v", err)
	}
	if !strings.Contains(string(decoded), "To: dana@example.com") {
		t.Errorf("decoded message missing recipient:\n%s", decoded)
	}
}

func TestGmailSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error": {"message": "Delegation denied"}}`)
	}))
	defer srv.Close()

	c := &GmailClient{
		baseURL: srv.URL,
		clientFor: func(context.Context, string) (*http.Client, error) {
			return srv.Client(), nil
		},
	}

	_, err := c.Send(context.Background(), testSender(), "dana@example.com", "Offer", "<p>Hi</p>", nil)
	if err == nil {
		t.Fatal("Send() error = nil, want API error")
	}
	if !strings.Contains(err.Error(), "status 403") {
		t.Errorf("error = %v, want status surfaced", err)
	}
}
