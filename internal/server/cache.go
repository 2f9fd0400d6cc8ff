package server

import (
	"context"
	"sync"
	"time"

	"github.com/mj1618/chrome-cli/internal/engine"
)

// SnapshotCache provides a TTL-based cache for accessibility snapshots, so a
// burst of tool calls against the same tab does not re-walk the page tree
// for every call.
type SnapshotCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry // keyed by target id
	ttl     time.Duration
}

type cacheEntry struct {
	snap      *engine.Snapshot
	timestamp time.Time
}

// NewSnapshotCache creates a new cache. A ttl of 0 disables caching.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Snapshot returns a cached snapshot if within TTL, otherwise captures fresh.
func (c *SnapshotCache) Snapshot(ctx context.Context, eng *engine.Engine, targetID string) (*engine.Snapshot, error) {
	if c.ttl == 0 {
		return eng.Snapshot(ctx, targetID)
	}

	c.mu.Lock()
	if entry, ok := c.entries[targetID]; ok && time.Since(entry.timestamp) < c.ttl {
		snap := entry.snap
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	snap, err := eng.Snapshot(ctx, targetID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[targetID] = cacheEntry{snap: snap, timestamp: time.Now()}
	c.mu.Unlock()

	return snap, nil
}

// InvalidateTarget removes the cache entry for one tab. Every action that
// can mutate a page must invalidate, or stale element IDs leak into later
// reads.
func (c *SnapshotCache) InvalidateTarget(targetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, targetID)
}

// InvalidateAll clears the entire cache.
func (c *SnapshotCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
