// Package diskstore implements a file-per-entry filesystem backend.
// Entry files carry an expiry header; recency is the file mtime, which
// Touch rewrites, so the directory itself is the index.
package diskstore

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/quillback/memocache/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// headerLen is the fixed entry prefix: expiry as big-endian unix
// nanoseconds, zero meaning no expiry.
const headerLen = 8

// Store is a filesystem backend rooted at one directory.
type Store struct {
	root string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a disk store rooted at dir, creating it if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s := &Store{root: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get reads the entry for key, expiring it lazily.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("reading entry: %w", err)
	}
	if len(data) < headerLen {
		return nil, fmt.Errorf("entry for %q truncated: %d bytes", key, len(data))
	}

	if expiry := int64(binary.BigEndian.Uint64(data[:headerLen])); expiry != 0 {
		if s.now().UnixNano() >= expiry {
			_ = os.Remove(s.path(key))
			return nil, store.ErrNotFound
		}
	}
	return data[headerLen:], nil
}

// Put writes the entry atomically via a rename.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	buf := make([]byte, headerLen+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(buf, uint64(s.now().Add(ttl).UnixNano()))
	}
	copy(buf[headerLen:], value)

	path := s.path(key)
	tmp, err := os.CreateTemp(s.root, ".put-*")
	if err != nil {
		return fmt.Errorf("creating temp entry: %w", err)
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publishing entry: %w", err)
	}
	return nil
}

// Delete removes the given entries. Missing files are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if err := os.Remove(s.path(k)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing entry: %w", err)
		}
	}
	return nil
}

// Keys enumerates entries whose key starts with prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.list()
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, name := range names {
		key, ok := decodeName(name)
		if ok && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Touch sets the entry mtime to the recency score.
func (s *Store) Touch(ctx context.Context, key string, score int64) error {
	t := time.Unix(0, score)
	if err := os.Chtimes(s.path(key), t, t); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("touching entry: %w", err)
	}
	return nil
}

// OldestN returns the n entries with the oldest mtimes.
func (s *Store) OldestN(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	names, err := s.list()
	if err != nil {
		return nil, err
	}

	type aged struct {
		key   string
		mtime time.Time
	}
	var all []aged
	for _, name := range names {
		key, ok := decodeName(name)
		if !ok {
			continue
		}
		info, err := os.Stat(filepath.Join(s.root, name))
		if err != nil {
			continue // deleted concurrently
		}
		all = append(all, aged{key: key, mtime: info.ModTime()})
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].mtime.Equal(all[j].mtime) {
			return all[i].mtime.Before(all[j].mtime)
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

// Untrack is a no-op: the files themselves are the index.
func (s *Store) Untrack(ctx context.Context, keys ...string) error {
	return nil
}

// TrackedLen returns the entry count.
func (s *Store) TrackedLen(ctx context.Context) (int, error) {
	names, err := s.list()
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// TracksRecency reports true: mtimes order the entries.
func (s *Store) TracksRecency() bool {
	return true
}

// Len returns the entry count.
func (s *Store) Len(ctx context.Context) (int, error) {
	return s.TrackedLen(ctx)
}

// Close is a no-op for the disk store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) list() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("listing store directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// path maps a key to its file. Keys are base64-encoded so any key is a
// valid single-segment filename.
func (s *Store) path(key string) string {
	return filepath.Join(s.root, base64.RawURLEncoding.EncodeToString([]byte(key)))
}

func decodeName(name string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(name)
	if err != nil {
		return "", false
	}
	return string(raw), true
}
