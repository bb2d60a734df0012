// Package gcsstore implements a Google Cloud Storage backend. Like the S3
// store it has no ordered index: recency tracking is reported as
// unavailable and expiry lives in object metadata.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/quillback/memocache/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// expiresKey is the metadata key holding the expiry as unix nanoseconds.
const expiresKey = "memocache-expires"

// Store is a Google Cloud Storage backend.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets an object key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
	}
}

// WithClock overrides the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a GCS store. The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	s := &Store{
		client: client,
		bucket: client.Bucket(bucketName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get reads the object for key, treating elapsed metadata expiry as
// absence.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj := s.bucket.Object(s.objectKey(key))

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("reading entry attributes: %w", err)
	}
	if expiredMeta(attrs.Metadata, s.now()) {
		_ = obj.Delete(ctx)
		return nil, store.ErrNotFound
	}

	reader, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading entry: %w", err)
	}
	return data, nil
}

// Put writes the object, recording expiry in metadata.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	writer := s.bucket.Object(s.objectKey(key)).NewWriter(ctx)
	if ttl > 0 {
		writer.Metadata = map[string]string{
			expiresKey: strconv.FormatInt(s.now().Add(ttl).UnixNano(), 10),
		}
	}
	if _, err := writer.Write(value); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing entry: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("publishing entry: %w", err)
	}
	return nil
}

// Delete removes the given objects. Missing objects are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		err := s.bucket.Object(s.objectKey(k)).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("deleting entry: %w", err)
		}
	}
	return nil
}

// Keys enumerates entries starting with prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.objectKey(prefix)})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing entries: %w", err)
		}
		keys = append(keys, strings.TrimPrefix(attrs.Name, s.prefix))
	}
	return keys, nil
}

// Touch is a no-op: GCS has no ordered index.
func (s *Store) Touch(ctx context.Context, key string, score int64) error {
	return nil
}

// OldestN is a no-op.
func (s *Store) OldestN(ctx context.Context, n int) ([]string, error) {
	return nil, nil
}

// Untrack is a no-op.
func (s *Store) Untrack(ctx context.Context, keys ...string) error {
	return nil
}

// TrackedLen is zero: nothing is tracked.
func (s *Store) TrackedLen(ctx context.Context) (int, error) {
	return 0, nil
}

// TracksRecency reports false; LRU bookkeeping is skipped for this store.
func (s *Store) TracksRecency() bool {
	return false
}

// Len counts objects under the store prefix.
func (s *Store) Len(ctx context.Context) (int, error) {
	n := 0
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})
	for {
		_, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("counting entries: %w", err)
		}
		n++
	}
	return n, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) objectKey(key string) string {
	return s.prefix + key
}

func expiredMeta(metadata map[string]string, now time.Time) bool {
	raw, ok := metadata[expiresKey]
	if !ok {
		return false
	}
	expiry, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false
	}
	return now.UnixNano() >= expiry
}
