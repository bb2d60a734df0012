// Package memstore provides the in-process reference backend. It keeps
// entries in a map guarded by a mutex and maintains the recency index as a
// score table sorted on demand.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/quillback/memocache/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Store is an in-memory backend. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	scores  map[string]int64
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		scores:  make(map[string]int64),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value for key, expiring it lazily if its TTL elapsed.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	if s.expired(e) {
		delete(s.entries, key)
		delete(s.scores, key)
		return nil, store.ErrNotFound
	}

	// Copy so caller mutations cannot corrupt the stored value.
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Put stores value under key. A ttl <= 0 means no expiry.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	copied := make([]byte, len(value))
	copy(copied, value)

	e := entry{value: copied}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Keys returns all live keys starting with prefix, sorted.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k, e := range s.entries {
		if strings.HasPrefix(k, prefix) && !s.expired(e) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Touch upserts key into the recency index.
func (s *Store) Touch(ctx context.Context, key string, score int64) error {
	s.mu.Lock()
	s.scores[key] = score
	s.mu.Unlock()
	return nil
}

// OldestN returns up to n tracked keys with the lowest scores.
func (s *Store) OldestN(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	type scored struct {
		key   string
		score int64
	}
	all := make([]scored, 0, len(s.scores))
	for k, sc := range s.scores {
		all = append(all, scored{key: k, score: sc})
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score < all[j].score
		}
		return all[i].key < all[j].key
	})

	if n > len(all) {
		n = len(all)
	}
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = all[i].key
	}
	return keys, nil
}

// Untrack removes keys from the recency index.
func (s *Store) Untrack(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.scores, k)
	}
	return nil
}

// TrackedLen returns the recency index cardinality.
func (s *Store) TrackedLen(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scores), nil
}

// TracksRecency reports true: the index is real.
func (s *Store) TracksRecency() bool {
	return true
}

// Len returns the number of live entries.
func (s *Store) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if !s.expired(e) {
			n++
		}
	}
	return n, nil
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
