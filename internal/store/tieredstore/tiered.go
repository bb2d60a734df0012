// Package tieredstore layers a small in-process LRU in front of another
// store. Useful when the authoritative store is remote (Redis, S3) and hot
// keys should not pay a network round trip on every hit.
//
// The front tier is an optimization only: every mutation writes through,
// and front entries carry a short residency bound so entries whose remote
// TTL is unknown cannot be served stale for long.
package tieredstore

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/quillback/memocache/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// DefaultResidency bounds how long a front-tier entry may serve reads
// when the authoritative TTL is not known locally.
const DefaultResidency = 5 * time.Second

type frontEntry struct {
	value     []byte
	expiresAt time.Time
}

// Store wraps another store with a front LRU tier.
type Store struct {
	underlying store.Store
	front      *lru.Cache[string, frontEntry]
	residency  time.Duration
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithResidency bounds front-tier entry lifetime.
func WithResidency(d time.Duration) Option {
	return func(s *Store) {
		s.residency = d
	}
}

// WithClock overrides the time source used for residency checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a tiered store whose front tier holds up to capacity
// entries.
func New(underlying store.Store, capacity int, opts ...Option) (*Store, error) {
	front, err := lru.New[string, frontEntry](capacity)
	if err != nil {
		return nil, err
	}

	s := &Store{
		underlying: underlying,
		front:      front,
		residency:  DefaultResidency,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get serves from the front tier when possible, falling back to the
// underlying store and re-populating the front on the way out.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if e, ok := s.front.Get(key); ok {
		if s.now().Before(e.expiresAt) {
			return e.value, nil
		}
		s.front.Remove(key)
	}

	data, err := s.underlying.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	// The remote TTL is unknown here; bound residency instead.
	s.add(key, data, s.residency)
	return data, nil
}

// Put writes through to the underlying store and refreshes the front.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.underlying.Put(ctx, key, value, ttl); err != nil {
		// Keep the front coherent with a failed write.
		s.front.Remove(key)
		return err
	}

	residency := s.residency
	if ttl > 0 && ttl < residency {
		residency = ttl
	}
	s.add(key, value, residency)
	return nil
}

// Delete removes entries from both tiers.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		s.front.Remove(k)
	}
	return s.underlying.Delete(ctx, keys...)
}

// Keys delegates to the underlying store.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	return s.underlying.Keys(ctx, prefix)
}

// Touch delegates recency to the underlying store.
func (s *Store) Touch(ctx context.Context, key string, score int64) error {
	return s.underlying.Touch(ctx, key, score)
}

// OldestN delegates to the underlying store.
func (s *Store) OldestN(ctx context.Context, n int) ([]string, error) {
	return s.underlying.OldestN(ctx, n)
}

// Untrack delegates to the underlying store.
func (s *Store) Untrack(ctx context.Context, keys ...string) error {
	return s.underlying.Untrack(ctx, keys...)
}

// TrackedLen delegates to the underlying store.
func (s *Store) TrackedLen(ctx context.Context) (int, error) {
	return s.underlying.TrackedLen(ctx)
}

// TracksRecency delegates to the underlying store.
func (s *Store) TracksRecency() bool {
	return s.underlying.TracksRecency()
}

// Len delegates to the underlying store.
func (s *Store) Len(ctx context.Context) (int, error) {
	return s.underlying.Len(ctx)
}

// Close purges the front tier and closes the underlying store.
func (s *Store) Close() error {
	s.front.Purge()
	return s.underlying.Close()
}

func (s *Store) add(key string, value []byte, residency time.Duration) {
	if residency <= 0 {
		return
	}
	s.front.Add(key, frontEntry{
		value:     value,
		expiresAt: s.now().Add(residency),
	})
}
