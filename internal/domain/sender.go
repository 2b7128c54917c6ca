package domain

import "time"

// Sender is a mailbox identity the engine may impersonate when dispatching.
type Sender struct {
	ID        string    `json:"id" db:"id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Title     string    `json:"title" db:"title"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SenderAllocation pairs a sender with a campaign under a daily quota and an
// inter-send cooldown. Counters are shared mutable state across concurrent
// campaign loops and must only ever be advanced through the store's atomic
// increment, never read-modify-write.
type SenderAllocation struct {
	ID         string `json:"id" db:"id"`
	CampaignID string `json:"campaign_id" db:"campaign_id"`
	SenderID   string `json:"sender_id" db:"sender_id"`

	DailyQuota int `json:"daily_quota" db:"daily_quota"`
	SentToday  int `json:"sent_today" db:"sent_today"`
	TotalSent  int `json:"total_sent" db:"total_sent"`

	// NextAvailableAt is the cooldown gate; nil means immediately eligible.
	NextAvailableAt *time.Time `json:"next_available_at,omitempty" db:"next_available_at"`

	// Sender is the joined identity row, populated by listing queries.
	Sender *Sender `json:"sender,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Eligible reports whether the allocation can take another send at the given
// instant: under its daily quota and out of cooldown.
func (a *SenderAllocation) Eligible(now time.Time) bool {
	if a.SentToday >= a.DailyQuota {
		return false
	}
	if a.NextAvailableAt != nil && !a.NextAvailableAt.Before(now) {
		return false
	}
	return true
}
