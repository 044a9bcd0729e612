// Package cache keeps the last assembled portfolio snapshot behind a TTL.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/thep200/github-portfolio-sync/internal/model"
	"github.com/thep200/github-portfolio-sync/internal/store"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

type SnapshotCache struct {
	Logger log.Logger
	store  store.Store
	key    string
	ttl    time.Duration
	now    func() time.Time
}

func NewSnapshotCache(logger log.Logger, s store.Store, key string, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		Logger: logger,
		store:  s,
		key:    key,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Read returns the stored snapshot when it is younger than the TTL.
// Unreadable or corrupt entries count as a miss.
func (c *SnapshotCache) Read(ctx context.Context) (*model.Snapshot, bool) {
	raw, ok, err := c.store.Read(ctx, c.key)
	if err != nil {
		c.Logger.Warn(ctx, "Cannot read cached snapshot: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.Logger.Warn(ctx, "Discarding corrupt cached snapshot: %v", err)
		return nil, false
	}
	if !snap.FreshAt(c.now(), c.ttl) {
		c.Logger.Debug(ctx, "Cached snapshot from %s is stale", snap.CapturedAt.Format(time.RFC3339))
		return nil, false
	}
	return &snap, true
}

// Write stamps snap with the current time and stores it. Failures are
// logged and otherwise ignored.
func (c *SnapshotCache) Write(ctx context.Context, snap *model.Snapshot) {
	snap.CapturedAt = c.now()
	raw, err := json.Marshal(snap)
	if err != nil {
		c.Logger.Error(ctx, "Cannot encode snapshot: %v", err)
		return
	}
	if err := c.store.Write(ctx, c.key, raw); err != nil {
		c.Logger.Warn(ctx, "Cannot store snapshot: %v", err)
	}
}
