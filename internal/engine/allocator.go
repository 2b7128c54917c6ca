package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/omegatable/outreach/internal/domain"
)

// Allocator selects the next eligible sender identity for a campaign from
// the shared allocation pool. Selection reads go through the store so that
// concurrent loop instances (other processes included) see the same
// counters; no sender state is held in memory between calls.
type Allocator struct {
	store Store
}

// NewAllocator creates an allocator over the given store.
func NewAllocator(store Store) *Allocator {
	return &Allocator{store: store}
}

// Allocate returns the allocation with the lowest total_sent among those
// under their daily quota and out of cooldown, or (nil, nil) when no sender
// is eligible. The nil result is a recoverable condition, not an error: the
// caller stops trying further recipients for the current job.
func (a *Allocator) Allocate(ctx context.Context, campaignID string) (*domain.SenderAllocation, error) {
	now := time.Now().UTC()

	allocs, err := a.store.EligibleAllocations(ctx, campaignID, now)
	if err != nil {
		return nil, fmt.Errorf("list eligible allocations: %w", err)
	}

	// The store orders by total_sent ascending; re-check eligibility here so
	// an in-memory fake with looser queries still honors quota and cooldown.
	var best *domain.SenderAllocation
	for i := range allocs {
		al := &allocs[i]
		if !al.Eligible(now) || al.Sender == nil {
			continue
		}
		if best == nil || al.TotalSent < best.TotalSent {
			best = al
		}
	}
	return best, nil
}
