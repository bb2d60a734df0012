// Package redisstore implements a Redis backend. Entries are plain keys
// with native TTL; the recency index is a sorted set scored by touch time,
// so eviction order is shared by every process using the store.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quillback/memocache/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// DefaultPrefix namespaces this store's Redis keys.
const DefaultPrefix = "memocache"

// Store is a Redis-backed cache store. The caller owns the client
// lifecycle; Close is a no-op.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the Redis key prefix, allowing several stores to share
// one database.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store on top of an existing client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value for key. Expiry is native Redis TTL.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading entry: %w", err)
	}
	return data, nil
}

// Put stores value under key with the given TTL (0 = no expiry).
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.entryKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	return nil
}

// Delete removes the given entries.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.entryKey(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	return nil
}

// Keys enumerates entries starting with prefix using SCAN, so it never
// blocks the server the way KEYS would.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := escapeMatch(s.entryKey(prefix)) + "*"
	strip := s.entryKey("")

	var keys []string
	iter := s.client.Scan(ctx, 0, match, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), strip))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning entries: %w", err)
	}
	return keys, nil
}

// Touch upserts key into the recency sorted set.
func (s *Store) Touch(ctx context.Context, key string, score int64) error {
	err := s.client.ZAdd(ctx, s.trackerKey(), redis.Z{
		Score:  float64(score),
		Member: key,
	}).Err()
	if err != nil {
		return fmt.Errorf("touching entry: %w", err)
	}
	return nil
}

// OldestN returns the n members with the lowest scores.
func (s *Store) OldestN(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	keys, err := s.client.ZRange(ctx, s.trackerKey(), 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("selecting oldest entries: %w", err)
	}
	return keys, nil
}

// Untrack removes keys from the recency sorted set.
func (s *Store) Untrack(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	members := make([]any, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	if err := s.client.ZRem(ctx, s.trackerKey(), members...).Err(); err != nil {
		return fmt.Errorf("untracking entries: %w", err)
	}
	return nil
}

// TrackedLen returns the sorted set cardinality.
func (s *Store) TrackedLen(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.trackerKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("counting tracked entries: %w", err)
	}
	return int(n), nil
}

// TracksRecency reports true: the sorted set is a real index.
func (s *Store) TracksRecency() bool {
	return true
}

// Len is unknown for Redis: counting a shared database means a full scan.
func (s *Store) Len(ctx context.Context) (int, error) {
	return 0, store.ErrLenUnknown
}

// Close is a no-op; the caller owns the client.
func (s *Store) Close() error {
	return nil
}

func (s *Store) entryKey(key string) string {
	return s.prefix + ":k:" + key
}

func (s *Store) trackerKey() string {
	return s.prefix + ":lru"
}

// escapeMatch escapes SCAN glob metacharacters so prefixes match literally.
func escapeMatch(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
