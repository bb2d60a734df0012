package redisstore

import (
	"context"
	"errors"
	"os"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quillback/memocache/internal/store"
)

func TestStore_KeyLayout(t *testing.T) {
	s := New(nil)
	if got := s.entryKey("f/abc"); got != "memocache:k:f/abc" {
		t.Errorf("entryKey() = %q, want %q", got, "memocache:k:f/abc")
	}
	if got := s.trackerKey(); got != "memocache:lru" {
		t.Errorf("trackerKey() = %q, want %q", got, "memocache:lru")
	}

	s = New(nil, WithPrefix("myapp"))
	if got := s.entryKey("f/abc"); got != "myapp:k:f/abc" {
		t.Errorf("entryKey() with prefix = %q, want %q", got, "myapp:k:f/abc")
	}
}

func TestEscapeMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"has*star", `has\*star`},
		{"q?mark", `q\?mark`},
		{"br[ack]ets", `br\[ack\]ets`},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		if got := escapeMatch(tt.input); got != tt.want {
			t.Errorf("escapeMatch(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestStore_LenUnknown(t *testing.T) {
	s := New(nil)
	if _, err := s.Len(context.Background()); !errors.Is(err, store.ErrLenUnknown) {
		t.Errorf("Len() error = %v, want ErrLenUnknown", err)
	}
}

// newIntegrationStore connects to the Redis named by REDIS_ADDR, skipping
// the test when none is available.
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping: REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping: Redis at %s not reachable: %v", addr, err)
	}

	prefix := "memocache-test-" + t.Name()
	s := New(client, WithPrefix(prefix))
	t.Cleanup(func() {
		keys, _ := s.Keys(context.Background(), "")
		if len(keys) > 0 {
			s.Delete(context.Background(), keys...)
			s.Untrack(context.Background(), keys...)
		}
		client.Del(context.Background(), s.trackerKey())
		client.Close()
	})
	return s
}

func TestIntegration_GetPut(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get() = %q, want %q", got, "v")
	}
}

func TestIntegration_TTL(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte("v"), 100*time.Millisecond); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get() after expiry error = %v, want ErrNotFound", err)
	}
}

func TestIntegration_Keys(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	for _, k := range []string{"ns:f/1", "ns:f/2", "ns:g/1"} {
		if err := s.Put(ctx, k, []byte("v"), 0); err != nil {
			t.Fatalf("Put(%q) error = %v", k, err)
		}
	}

	keys, err := s.Keys(ctx, "ns:f/")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	sort.Strings(keys)
	if !reflect.DeepEqual(keys, []string{"ns:f/1", "ns:f/2"}) {
		t.Errorf("Keys() = %v, want [ns:f/1 ns:f/2]", keys)
	}
}

func TestIntegration_RecencyIndex(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	if !s.TracksRecency() {
		t.Fatal("TracksRecency() = false, want true")
	}

	base := time.Now().UnixNano()
	for i, k := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("Put(%q) error = %v", k, err)
		}
		if err := s.Touch(ctx, k, base+int64(i)*int64(time.Second)); err != nil {
			t.Fatalf("Touch(%q) error = %v", k, err)
		}
	}

	n, err := s.TrackedLen(ctx)
	if err != nil {
		t.Fatalf("TrackedLen() error = %v", err)
	}
	if n != 3 {
		t.Errorf("TrackedLen() = %d, want 3", n)
	}

	oldest, err := s.OldestN(ctx, 2)
	if err != nil {
		t.Fatalf("OldestN() error = %v", err)
	}
	if !reflect.DeepEqual(oldest, []string{"a", "b"}) {
		t.Errorf("OldestN(2) = %v, want [a b]", oldest)
	}

	if err := s.Untrack(ctx, "a", "b", "c"); err != nil {
		t.Fatalf("Untrack() error = %v", err)
	}
	if n, _ := s.TrackedLen(ctx); n != 0 {
		t.Errorf("TrackedLen() after untrack = %d, want 0", n)
	}
}
