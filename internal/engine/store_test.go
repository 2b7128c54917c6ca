package engine_test

import (
	"context"
	"sync"
	"time"

	"github.com/omegatable/outreach/internal/domain"
	"github.com/omegatable/outreach/internal/engine"
)

// memStore is an in-memory engine.Store for unit testing. Leads are kept in
// insertion order so selection is deterministic.
type memStore struct {
	mu sync.Mutex

	campaigns   map[string]*domain.Campaign
	leads       []*domain.Lead
	jobs        map[string]*domain.CampaignJob
	allocations []*domain.SenderAllocation
	tasks       map[string]*domain.EmailTask
	logs        []*domain.CampaignLogEntry
	events      []*domain.SystemEvent

	paused bool

	// Optional induced failures.
	allocationsErr error
}

func newMemStore() *memStore {
	return &memStore{
		campaigns: make(map[string]*domain.Campaign),
		jobs:      make(map[string]*domain.CampaignJob),
		tasks:     make(map[string]*domain.EmailTask),
	}
}

func (m *memStore) GetCampaign(_ context.Context, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, engine.ErrCampaignNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) UpdateCampaignStatus(_ context.Context, id string, status domain.CampaignStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return engine.ErrCampaignNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) CountJobs(_ context.Context, campaignID string, status domain.JobStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.jobs {
		if j.CampaignID == campaignID && j.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memStore) NextLead(_ context.Context, campaignID, marketRegion string) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	used := make(map[int64]bool)
	for _, j := range m.jobs {
		if j.CampaignID == campaignID {
			used[j.LeadID] = true
		}
	}
	for _, l := range m.leads {
		if used[l.ID] {
			continue
		}
		if marketRegion != "" && l.MarketRegion != marketRegion {
			continue
		}
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) InsertJob(_ context.Context, job *domain.CampaignJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[cp.ID] = &cp
	return nil
}

func (m *memStore) UpdateJob(_ context.Context, jobID string, status domain.JobStatus, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil
	}
	j.Status = status
	j.CompletedAt = &completedAt
	return nil
}

func (m *memStore) UpdateLeadStatus(_ context.Context, leadID int64, status domain.LeadStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.ID == leadID {
			l.Status = string(status)
		}
	}
	return nil
}

func (m *memStore) EligibleAllocations(_ context.Context, campaignID string, now time.Time) ([]domain.SenderAllocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allocationsErr != nil {
		return nil, m.allocationsErr
	}
	var out []domain.SenderAllocation
	for _, a := range m.allocations {
		if a.CampaignID != campaignID || !a.Eligible(now) {
			continue
		}
		cp := *a
		if a.Sender != nil {
			s := *a.Sender
			cp.Sender = &s
		}
		out = append(out, cp)
	}
	return out, nil
}

func (m *memStore) IncrementSenderCounters(_ context.Context, senderID, campaignID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.allocations {
		if a.SenderID == senderID && a.CampaignID == campaignID {
			a.SentToday += delta
			a.TotalSent += delta
		}
	}
	return nil
}

func (m *memStore) InsertEmailTask(_ context.Context, task *domain.EmailTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *task
	m.tasks[cp.ID] = &cp
	return nil
}

func (m *memStore) MarkTaskSent(_ context.Context, taskID, messageID, threadID string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return nil
	}
	t.Status = domain.TaskSent
	t.MessageID = messageID
	t.ThreadID = threadID
	t.SentAt = &sentAt
	return nil
}

func (m *memStore) MarkTaskFailed(_ context.Context, taskID, errText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return nil
	}
	t.Status = domain.TaskFailed
	t.Error = errText
	return nil
}

func (m *memStore) InsertCampaignLog(_ context.Context, entry *domain.CampaignLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *memStore) LogSystemEvent(_ context.Context, event *domain.SystemEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.events = append(m.events, &cp)
	return nil
}

func (m *memStore) ProcessingEnabled(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.paused, nil
}

// Test inspection helpers.

func (m *memStore) campaignStatus(id string) domain.CampaignStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.campaigns[id].Status
}

func (m *memStore) jobList() []domain.CampaignJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CampaignJob
	for _, j := range m.jobs {
		out = append(out, *j)
	}
	return out
}

func (m *memStore) taskList() []domain.EmailTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.EmailTask
	for _, t := range m.tasks {
		out = append(out, *t)
	}
	return out
}

func (m *memStore) allocation(senderID string) *domain.SenderAllocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.allocations {
		if a.SenderID == senderID {
			cp := *a
			return &cp
		}
	}
	return nil
}

func (m *memStore) leadStatus(id int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.leads {
		if l.ID == id {
			return l.Status
		}
	}
	return ""
}

func (m *memStore) setPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = paused
}
