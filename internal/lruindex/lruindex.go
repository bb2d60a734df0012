// Package lruindex maintains recency ordering and capacity eviction on
// top of a store's index primitives.
package lruindex

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/quillback/memocache/internal/store"
)

// Index drives LRU bookkeeping for one cache. Scores are wall-clock
// nanoseconds forced strictly monotonic per process, so clock adjustments
// and high call rates cannot reorder entries touched back to back.
type Index struct {
	store   store.Store
	maxsize int
	now     func() time.Time
	last    atomic.Int64
}

// New creates an index over s. A maxsize <= 0 disables bookkeeping, as
// does a store without a real recency index.
func New(s store.Store, maxsize int, now func() time.Time) *Index {
	if now == nil {
		now = time.Now
	}
	return &Index{store: s, maxsize: maxsize, now: now}
}

// Enabled reports whether LRU bookkeeping is active.
func (ix *Index) Enabled() bool {
	return ix.maxsize > 0 && ix.store.TracksRecency()
}

// MaxSize returns the configured capacity bound (0 = unbounded).
func (ix *Index) MaxSize() int {
	return ix.maxsize
}

// Touch records key as most recently used. Called on every hit and every
// successful store.
func (ix *Index) Touch(ctx context.Context, key string) error {
	if !ix.Enabled() {
		return nil
	}
	return ix.store.Touch(ctx, key, ix.nextScore())
}

// EvictIfNeeded removes the oldest entries until the index is back within
// maxsize. Returns how many entries were evicted. Store and index removal
// are separate idempotent operations; a crash in between leaves transient
// divergence that later evictions converge.
func (ix *Index) EvictIfNeeded(ctx context.Context) (int, error) {
	if !ix.Enabled() {
		return 0, nil
	}

	card, err := ix.store.TrackedLen(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading index cardinality: %w", err)
	}
	n := card - ix.maxsize
	if n <= 0 {
		return 0, nil
	}

	victims, err := ix.store.OldestN(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("selecting eviction victims: %w", err)
	}
	if len(victims) == 0 {
		return 0, nil
	}

	if err := ix.store.Delete(ctx, victims...); err != nil {
		return 0, fmt.Errorf("deleting evicted entries: %w", err)
	}
	if err := ix.store.Untrack(ctx, victims...); err != nil {
		return len(victims), fmt.Errorf("untracking evicted entries: %w", err)
	}
	return len(victims), nil
}

// Untrack removes keys from the index (used by Clear).
func (ix *Index) Untrack(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return ix.store.Untrack(ctx, keys...)
}

// Len returns the index cardinality.
func (ix *Index) Len(ctx context.Context) (int, error) {
	return ix.store.TrackedLen(ctx)
}

// nextScore returns a strictly increasing score seeded by wall-clock time.
func (ix *Index) nextScore() int64 {
	now := ix.now().UnixNano()
	for {
		last := ix.last.Load()
		s := now
		if s <= last {
			s = last + 1
		}
		if ix.last.CompareAndSwap(last, s) {
			return s
		}
	}
}
