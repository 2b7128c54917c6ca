package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/omegatable/outreach/internal/domain"
	"github.com/omegatable/outreach/internal/engine"
)

func setupTestDB(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestGetCampaign(t *testing.T) {
	s, mock := setupTestDB(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "name", "status", "quota", "market_region", "job_delay_seconds",
		"et_id", "et_subject", "et_content", "pt_id", "pt_content",
		"created_at", "updated_at",
	}).AddRow(
		"camp-1", "user-1", "Spring offers", "AWAITING_CONFIRMATION", 50, "austin", 5,
		"tpl-1", "Offer for {{ property_address }}", "<p>Hi {{ recipient_name }}</p>",
		"tpl-2", "<h1>{{ property_address }}</h1>",
		now, now,
	)
	mock.ExpectQuery(`SELECT c.id, c.user_id.*FROM campaigns c.*LEFT JOIN templates`).
		WithArgs("camp-1").
		WillReturnRows(rows)

	c, err := s.GetCampaign(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("GetCampaign() error: %v", err)
	}
	if c.Status != domain.CampaignAwaitingConfirmation || c.Quota != 50 {
		t.Errorf("campaign = %+v", c)
	}
	if c.EmailTemplate == nil || c.EmailTemplate.Subject != "Offer for {{ property_address }}" {
		t.Errorf("email template = %+v", c.EmailTemplate)
	}
	if c.PDFTemplate == nil || c.PDFTemplate.Content != "<h1>{{ property_address }}</h1>" {
		t.Errorf("pdf template = %+v", c.PDFTemplate)
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	s, mock := setupTestDB(t)

	mock.ExpectQuery(`SELECT c.id, c.user_id.*FROM campaigns c`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetCampaign(context.Background(), "nope")
	if !errors.Is(err, engine.ErrCampaignNotFound) {
		t.Fatalf("GetCampaign() error = %v, want ErrCampaignNotFound", err)
	}
}

func TestUpdateCampaignStatusMissingRow(t *testing.T) {
	s, mock := setupTestDB(t)

	mock.ExpectExec(`UPDATE campaigns SET status`).
		WithArgs("ACTIVE", "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateCampaignStatus(context.Background(), "nope", domain.CampaignActive)
	if !errors.Is(err, engine.ErrCampaignNotFound) {
		t.Fatalf("UpdateCampaignStatus() error = %v, want ErrCampaignNotFound", err)
	}
}

func TestNextLeadExcludesJobRows(t *testing.T) {
	s, mock := setupTestDB(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "market_region",
		"contact1_name", "contact1_email", "contact2_name", "contact2_email",
		"contact3_name", "contact3_email", "agent_name", "agent_email",
		"property_address", "property_city", "property_state", "property_zip",
		"assessed_total", "wholesale_value", "status", "created_at", "updated_at",
	}).AddRow(
		int64(7), "austin",
		"Dana", "dana@example.com", "", "", "", "", "", "",
		"12 Oak St", "Austin", "TX", "78701",
		250000.0, 180000.0, "", now, now,
	)
	mock.ExpectQuery(`SELECT.*FROM leads l.*WHERE NOT EXISTS.*campaign_jobs j.*ORDER BY l.id ASC LIMIT 1`).
		WithArgs("camp-1", "austin").
		WillReturnRows(rows)

	lead, err := s.NextLead(context.Background(), "camp-1", "austin")
	if err != nil {
		t.Fatalf("NextLead() error: %v", err)
	}
	if lead.ID != 7 || lead.Contact1Email != "dana@example.com" {
		t.Errorf("lead = %+v", lead)
	}
}

func TestNextLeadExhausted(t *testing.T) {
	s, mock := setupTestDB(t)

	mock.ExpectQuery(`SELECT.*FROM leads l`).
		WithArgs("camp-1").
		WillReturnError(sql.ErrNoRows)

	lead, err := s.NextLead(context.Background(), "camp-1", "")
	if err != nil {
		t.Fatalf("NextLead() error: %v", err)
	}
	if lead != nil {
		t.Errorf("NextLead() = %+v, want nil when pool exhausted", lead)
	}
}

func TestEligibleAllocationsQueryShape(t *testing.T) {
	s, mock := setupTestDB(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "campaign_id", "sender_id",
		"daily_quota", "sent_today", "total_sent", "next_available_at",
		"s_id", "full_name", "title", "email",
		"created_at", "updated_at",
	}).AddRow(
		"alloc-1", "camp-1", "sender-1",
		25, 3, 120, nil,
		"sender-1", "Alex Morgan", "Acquisitions", "alex@omegatable.com",
		now, now,
	)
	mock.ExpectQuery(`FROM sender_allocations a.*JOIN senders s.*sent_today < a.daily_quota.*next_available_at IS NULL OR a.next_available_at < .*ORDER BY a.total_sent ASC`).
		WithArgs("camp-1", now).
		WillReturnRows(rows)

	allocs, err := s.EligibleAllocations(context.Background(), "camp-1", now)
	if err != nil {
		t.Fatalf("EligibleAllocations() error: %v", err)
	}
	if len(allocs) != 1 {
		t.Fatalf("allocations = %d, want 1", len(allocs))
	}
	if allocs[0].Sender == nil || allocs[0].Sender.FullName != "Alex Morgan" {
		t.Errorf("joined sender = %+v", allocs[0].Sender)
	}
}

func TestIncrementSenderCountersIsStoreSide(t *testing.T) {
	s, mock := setupTestDB(t)

	mock.ExpectExec(`UPDATE sender_allocations.*sent_today = sent_today \+ \$1.*total_sent = total_sent \+ \$1`).
		WithArgs(1, "sender-1", "camp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.IncrementSenderCounters(context.Background(), "sender-1", "camp-1", 1)
	if err != nil {
		t.Fatalf("IncrementSenderCounters() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestInsertLeadsBatch(t *testing.T) {
	s, mock := setupTestDB(t)

	mock.ExpectExec(`INSERT INTO leads`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := s.InsertLeads(context.Background(), []*domain.Lead{
		{Contact1Name: "Dana", Contact1Email: "dana@example.com", PropertyAddress: "12 Oak St"},
		{Contact1Name: "Lee", Contact1Email: "lee@example.com", PropertyAddress: "34 Elm Ave"},
	})
	if err != nil {
		t.Fatalf("InsertLeads() error: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}
}

func TestProcessingEnabledDefaultsTrue(t *testing.T) {
	s, mock := setupTestDB(t)

	mock.ExpectQuery(`SELECT enabled FROM engine_status`).
		WillReturnError(sql.ErrNoRows)

	enabled, err := s.ProcessingEnabled(context.Background())
	if err != nil {
		t.Fatalf("ProcessingEnabled() error: %v", err)
	}
	if !enabled {
		t.Error("ProcessingEnabled() = false for absent row, want true")
	}
}

func TestMarkTaskSent(t *testing.T) {
	s, mock := setupTestDB(t)

	sentAt := time.Now().UTC()
	mock.ExpectExec(`UPDATE email_tasks.*SET status = \$1, message_id = \$2, thread_id = \$3, sent_at = \$4`).
		WithArgs(string(domain.TaskSent), "msg-1", "thread-1", sentAt, "task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.MarkTaskSent(context.Background(), "task-1", "msg-1", "thread-1", sentAt); err != nil {
		t.Fatalf("MarkTaskSent() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
