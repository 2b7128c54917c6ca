package engine_test

import (
	"context"
	"errors"
	"sync"

	"github.com/omegatable/outreach/internal/domain"
	"github.com/omegatable/outreach/internal/engine"
)

// fakeMailer records every dispatch attempt and can be programmed to fail.
type fakeMailer struct {
	mu sync.Mutex

	// failAll makes every attempt fail; failFirst makes the first n
	// attempts per recipient fail before succeeding.
	failAll   bool
	failFirst int

	// gate, when set, blocks each Send until a value is received. Lets a
	// test hold the loop mid-job deterministically.
	gate chan struct{}

	attempts map[string]int // recipient -> attempt count
	inFlight int
	sent     []sentMessage
}

type sentMessage struct {
	sender      domain.Sender
	to          string
	subject     string
	body        string
	attachments []engine.Attachment
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{attempts: make(map[string]int)}
}

func (f *fakeMailer) Send(_ context.Context, sender domain.Sender, to, subject, body string, attachments []engine.Attachment) (*engine.Receipt, error) {
	if f.gate != nil {
		f.mu.Lock()
		f.inFlight++
		f.mu.Unlock()
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[to]++
	if f.failAll || f.attempts[to] <= f.failFirst {
		return nil, errors.New("smtp 550 rejected")
	}
	f.sent = append(f.sent, sentMessage{sender: sender, to: to, subject: subject, body: body, attachments: attachments})
	return &engine.Receipt{
		MessageID: "msg-" + to,
		ThreadID:  "thread-" + to,
	}, nil
}

func (f *fakeMailer) inFlightCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

func (f *fakeMailer) attemptCount(to string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[to]
}

func (f *fakeMailer) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

// fakePDF returns fixed bytes or a programmed error.
type fakePDF struct {
	err   error
	bytes []byte

	mu    sync.Mutex
	calls int
}

func (f *fakePDF) RenderPDF(_ context.Context, _ string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.bytes != nil {
		return f.bytes, nil
	}
	return []byte("%PDF-1.4 fake"), nil
}

// fakeArchiver records archive calls.
type fakeArchiver struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeArchiver) Archive(_ context.Context, key string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeArchiver) archivedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}
