// Package s3store implements an AWS S3 backend. Objects have no cheap
// ordered index, so recency tracking is reported as unavailable and LRU
// bookkeeping is skipped; expiry is carried in object metadata and
// enforced lazily on read.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/quillback/memocache/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// expiresKey is the metadata key holding the expiry as unix nanoseconds.
const expiresKey = "memocache-expires"

// Store is an AWS S3 backend.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store) error

// WithPrefix sets an object key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) error {
		s.prefix = strings.TrimSuffix(prefix, "/")
		if s.prefix != "" {
			s.prefix += "/"
		}
		return nil
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *Store) error {
		cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			return fmt.Errorf("loading AWS config with region: %w", err)
		}
		s.client = s3.NewFromConfig(cfg)
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(s *Store) error {
		cfg, err := config.LoadDefaultConfig(context.Background())
		if err != nil {
			return fmt.Errorf("loading AWS config for endpoint: %w", err)
		}
		s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
		return nil
	}
}

// WithClient injects an existing S3 client.
func WithClient(client *s3.Client) Option {
	return func(s *Store) error {
		s.client = client
		return nil
	}
}

// New creates an S3 store. The bucket must already exist.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	s := &Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Get reads the object for key, treating elapsed metadata expiry as
// absence.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("reading entry: %w", err)
	}
	defer result.Body.Close()

	if expiredMeta(result.Metadata, s.now()) {
		// Best effort; a lingering expired object is re-checked next read.
		_ = s.Delete(ctx, key)
		return nil, store.ErrNotFound
	}

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading entry body: %w", err)
	}
	return data, nil
}

// Put writes the object, recording expiry in metadata.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(value),
	}
	if ttl > 0 {
		input.Metadata = map[string]string{
			expiresKey: strconv.FormatInt(s.now().Add(ttl).UnixNano(), 10),
		}
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	return nil
}

// Delete removes the given objects in one batch call.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	objects := make([]types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		objects[i] = types.ObjectIdentifier{Key: aws.String(s.objectKey(k))}
	}
	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}
	return nil
}

// Keys enumerates entries starting with prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing entries: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
	}
	return keys, nil
}

// Touch is a no-op: S3 has no ordered index.
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
	var n int
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("counting entries: %w", err)
		}
		n += len(page.Contents)
	}
	return n, nil
}

// Close releases resources. The S3 client needs no explicit closing.
func (s *Store) Close() error {
	return nil
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
