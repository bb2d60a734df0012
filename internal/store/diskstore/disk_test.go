package diskstore

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/quillback/memocache/internal/store"
)

func TestStore_GetPut(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, "ns:f/abc", []byte("value"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(ctx, "ns:f/abc")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "value" {
		t.Errorf("Get() = %q, want %q", got, "value")
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s1.Put(ctx, "k", []byte("persisted"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	s1.Close()

	s2, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	got, err := s2.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("Get() = %q, want %q", got, "persisted")
	}
}

func TestStore_TTL(t *testing.T) {
	now := time.Unix(1000, 0)
	s := newTestStore(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() after expiry error = %v, want ErrNotFound", err)
	}
}

func TestStore_Keys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Slashes and colons in keys must not leak into the directory layout.
	for _, k := range []string{"ns:f/1", "ns:f/2", "ns:g/1"} {
		if err := s.Put(ctx, k, []byte("v"), 0); err != nil {
			t.Fatalf("Put(%q) error = %v", k, err)
		}
	}

	keys, err := s.Keys(ctx, "ns:f/")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"ns:f/1", "ns:f/2"}) {
		t.Errorf("Keys() = %v, want [ns:f/1 ns:f/2]", keys)
	}
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Delete(ctx, "k", "missing"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestStore_RecencyByMtime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).UnixNano()
	order := []struct {
		key   string
		score int64
	}{
		{"b", base + 2},
		{"a", base + 1},
		{"c", base + 3},
	}
	for _, tc := range order {
		if err := s.Put(ctx, tc.key, []byte(tc.key), 0); err != nil {
			t.Fatalf("Put(%q) error = %v", tc.key, err)
		}
		if err := s.Touch(ctx, tc.key, tc.score); err != nil {
			t.Fatalf("Touch(%q) error = %v", tc.key, err)
		}
	}

	oldest, err := s.OldestN(ctx, 2)
	if err != nil {
		t.Fatalf("OldestN() error = %v", err)
	}
	if !reflect.DeepEqual(oldest, []string{"a", "b"}) {
		t.Errorf("OldestN(2) = %v, want [a b]", oldest)
	}

	n, err := s.TrackedLen(ctx)
	if err != nil {
		t.Fatalf("TrackedLen() error = %v", err)
	}
	if n != 3 {
		t.Errorf("TrackedLen() = %d, want 3", n)
	}
}

func TestStore_TouchMissingEntry(t *testing.T) {
	s := newTestStore(t)

	// An entry can be deleted between store and touch; that is not an error.
	if err := s.Touch(context.Background(), "gone", time.Now().UnixNano()); err != nil {
		t.Errorf("Touch(missing) error = %v", err)
	}
}

func TestStore_IgnoresTempFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// In-progress temp files (dot-prefixed) never show up as entries.
	keys, err := s.Keys(ctx, "")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"k"}) {
		t.Errorf("Keys() = %v, want [k]", keys)
	}
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := New(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
