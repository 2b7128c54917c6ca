package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/omegatable/outreach/internal/domain"
)

// EligibleAllocations returns sender allocations for the campaign that are
// under their daily quota and out of cooldown, busiest-last.
func (s *Store) EligibleAllocations(ctx context.Context, campaignID string, now time.Time) ([]domain.SenderAllocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.campaign_id, a.sender_id,
		       a.daily_quota, a.sent_today, a.total_sent, a.next_available_at,
		       s.id, s.full_name, COALESCE(s.title,''), s.email,
		       a.created_at, a.updated_at
		FROM sender_allocations a
		JOIN senders s ON s.id = a.sender_id
		WHERE a.campaign_id = $1
		  AND a.sent_today < a.daily_quota
		  AND (a.next_available_at IS NULL OR a.next_available_at < $2)
		ORDER BY a.total_sent ASC
	`, campaignID, now)
	if err != nil {
		return nil, fmt.Errorf("eligible allocations: %w", err)
	}
	defer rows.Close()

	var out []domain.SenderAllocation
	for rows.Next() {
		var a domain.SenderAllocation
		var sender domain.Sender
		if err := rows.Scan(
			&a.ID, &a.CampaignID, &a.SenderID,
			&a.DailyQuota, &a.SentToday, &a.TotalSent, &a.NextAvailableAt,
			&sender.ID, &sender.FullName, &sender.Title, &sender.Email,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		a.Sender = &sender
		out = append(out, a)
	}
	return out, rows.Err()
}

// IncrementSenderCounters advances sent_today and total_sent in a single
// store-side UPDATE. Concurrent loops racing on the same sender each land
// their own increment; the counters can briefly exceed the last eligibility
// read but never lose a send.
func (s *Store) IncrementSenderCounters(ctx context.Context, senderID, campaignID string, delta int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sender_allocations
		SET sent_today = sent_today + $1,
		    total_sent = total_sent + $1,
		    updated_at = NOW()
		WHERE sender_id = $2 AND campaign_id = $3
	`, delta, senderID, campaignID)
	if err != nil {
		return fmt.Errorf("increment sender counters: %w", err)
	}
	return nil
}

// ResetDailyCounters zeroes sent_today across all allocations. Run from a
// daily scheduler at local midnight.
func (s *Store) ResetDailyCounters(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sender_allocations SET sent_today = 0, updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("reset daily counters: %w", err)
	}
	return nil
}

// ListSenders returns every sender identity.
func (s *Store) ListSenders(ctx context.Context) ([]domain.Sender, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name, COALESCE(title,''), email, created_at
		FROM senders
		ORDER BY full_name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list senders: %w", err)
	}
	defer rows.Close()

	var out []domain.Sender
	for rows.Next() {
		var sd domain.Sender
		if err := rows.Scan(&sd.ID, &sd.FullName, &sd.Title, &sd.Email, &sd.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sender: %w", err)
		}
		out = append(out, sd)
	}
	return out, rows.Err()
}

// CreateSender inserts a sender identity.
func (s *Store) CreateSender(ctx context.Context, sender *domain.Sender) (string, error) {
	if sender.ID == "" {
		sender.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO senders (id, full_name, title, email, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, sender.ID, sender.FullName, sender.Title, sender.Email)
	if err != nil {
		return "", fmt.Errorf("create sender: %w", err)
	}
	return sender.ID, nil
}

// DeleteSender removes a sender and its allocations.
func (s *Store) DeleteSender(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM sender_allocations WHERE sender_id = $1
	`, id); err != nil {
		return fmt.Errorf("delete sender allocations: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM senders WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("delete sender: %w", err)
	}
	return nil
}

// AllocateSenders attaches senders to a campaign with a shared daily quota.
func (s *Store) AllocateSenders(ctx context.Context, campaignID string, senderIDs []string, dailyQuota int) error {
	for _, senderID := range senderIDs {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO sender_allocations
				(id, campaign_id, sender_id, daily_quota, sent_today, total_sent, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 0, 0, NOW(), NOW())
			ON CONFLICT (campaign_id, sender_id) DO UPDATE SET daily_quota = EXCLUDED.daily_quota
		`, uuid.New().String(), campaignID, senderID, dailyQuota)
		if err != nil {
			return fmt.Errorf("allocate sender %s: %w", senderID, err)
		}
	}
	return nil
}
