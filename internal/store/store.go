// Package store defines the minimal storage capability set the cache
// engine requires from any backend.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key is absent or expired.
var ErrNotFound = errors.New("store: key not found")

// ErrLenUnknown is returned by Len when the backend cannot count its
// entries cheaply (e.g. a shared Redis database).
var ErrLenUnknown = errors.New("store: entry count unknown")

// Store is the capability set a backend must implement. One variant exists
// per storage technology and is selected at construction time; the engine
// never inspects the concrete type.
//
// The recency methods form an ordered index used for LRU eviction. A
// backend with native eviction (or none at all, like object stores) may
// implement them as no-ops and report TracksRecency() == false; the engine
// then skips capacity bookkeeping and derives sizes from Len.
type Store interface {
	// Get returns the stored bytes for key, or ErrNotFound if the key is
	// absent or its TTL has elapsed.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key. A ttl <= 0 means no expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Keys enumerates all keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Touch upserts key into the recency index with the given score.
	Touch(ctx context.Context, key string, score int64) error

	// OldestN returns up to n keys with the lowest recency scores.
	OldestN(ctx context.Context, n int) ([]string, error)

	// Untrack removes the given keys from the recency index without
	// touching their entries.
	Untrack(ctx context.Context, keys ...string) error

	// TrackedLen returns the number of keys in the recency index.
	TrackedLen(ctx context.Context) (int, error)

	// TracksRecency reports whether Touch/OldestN/Untrack/TrackedLen are
	// backed by a real index.
	TracksRecency() bool

	// Len returns the backend-native entry count, or ErrLenUnknown.
	Len(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
