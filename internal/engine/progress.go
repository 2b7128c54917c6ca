package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// ProgressTracker keeps live per-campaign counters in Redis so the dashboard
// can poll progress without hitting the primary store. Everything here is
// best effort: a Redis outage must never affect the campaign loop, so write
// errors are logged and dropped.
type ProgressTracker struct {
	rdb *redis.Client
}

// NewProgressTracker creates a tracker over the given Redis client.
func NewProgressTracker(rdb *redis.Client) *ProgressTracker {
	return &ProgressTracker{rdb: rdb}
}

// Progress is a point-in-time snapshot of a campaign's counters.
type Progress struct {
	CampaignID string `json:"campaign_id"`
	Sent       int64  `json:"sent"`
	Failed     int64  `json:"failed"`
	Jobs       int64  `json:"jobs"`
}

func progressKey(campaignID, field string) string {
	return fmt.Sprintf("outreach:campaign:%s:%s", campaignID, field)
}

// IncrSent advances the confirmed-send counter.
func (p *ProgressTracker) IncrSent(ctx context.Context, campaignID string) {
	p.incr(ctx, campaignID, "sent")
}

// IncrFailed advances the exhausted-retry counter.
func (p *ProgressTracker) IncrFailed(ctx context.Context, campaignID string) {
	p.incr(ctx, campaignID, "failed")
}

// IncrJobs advances the finalized-job counter.
func (p *ProgressTracker) IncrJobs(ctx context.Context, campaignID string) {
	p.incr(ctx, campaignID, "jobs")
}

func (p *ProgressTracker) incr(ctx context.Context, campaignID, field string) {
	if p == nil || p.rdb == nil {
		return
	}
	if err := p.rdb.Incr(ctx, progressKey(campaignID, field)).Err(); err != nil {
		log.Printf("[Progress] incr %s for campaign %s: %v", field, campaignID, err)
	}
}

// Snapshot reads the campaign's counters. Missing keys read as zero.
func (p *ProgressTracker) Snapshot(ctx context.Context, campaignID string) (*Progress, error) {
	out := &Progress{CampaignID: campaignID}
	for _, f := range []struct {
		field string
		dst   *int64
	}{
		{"sent", &out.Sent},
		{"failed", &out.Failed},
		{"jobs", &out.Jobs},
	} {
		n, err := p.rdb.Get(ctx, progressKey(campaignID, f.field)).Int64()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s counter: %w", f.field, err)
		}
		*f.dst = n
	}
	return out, nil
}
