package sheets

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"expensedash/internal/cache"
	"expensedash/internal/core"
)

const snapshotKey = "snapshot"

// CachedStore wraps a Store with a short-lived snapshot cache. Concurrent
// misses share one upstream fetch, and a successful Append drops the
// cached snapshot. A fetch that was in flight during an Append is never
// cached, so the next read sees the appended row.
type CachedStore struct {
	Store
	snapshots *cache.LRUCache[[]core.RawRecord]
	group     singleflight.Group
	// generation is bumped by every successful Append.
	generation atomic.Uint64
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(s Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Store:     s,
		snapshots: cache.NewLRUCache[[]core.RawRecord](1, ttl),
	}
}

// Cache exposes the snapshot cache so a cache.Manager can sweep it.
func (c *CachedStore) Cache() *cache.LRUCache[[]core.RawRecord] {
	return c.snapshots
}

// FetchRecords serves the cached snapshot or joins a shared upstream
// fetch. The shared fetch is detached from any single caller's
// cancellation; each caller still stops waiting when its own ctx ends.
func (c *CachedStore) FetchRecords(ctx context.Context) ([]core.RawRecord, error) {
	if recs, ok := c.snapshots.Get(snapshotKey); ok {
		return recs, nil
	}
	gen := c.generation.Load()
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(snapshotKey, func() (any, error) {
		recs, err := c.Store.FetchRecords(fetchCtx)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			c.snapshots.Set(snapshotKey, recs)
		}
		return recs, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]core.RawRecord), nil
	}
}

func (c *CachedStore) Append(ctx context.Context, r core.OutboundRecord) (string, error) {
	ref, err := c.Store.Append(ctx, r)
	if err == nil {
		c.generation.Add(1)
		c.group.Forget(snapshotKey)
		c.snapshots.Purge()
	}
	return ref, err
}
