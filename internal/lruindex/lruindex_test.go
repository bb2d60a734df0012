package lruindex

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quillback/memocache/internal/store/memstore"
)

func TestIndex_Disabled(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()

	ix := New(mem, 0, nil)
	if ix.Enabled() {
		t.Error("Enabled() = true with maxsize 0")
	}

	// Touch must be a no-op so nothing accumulates in the index.
	if err := ix.Touch(ctx, "k"); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if n, _ := mem.TrackedLen(ctx); n != 0 {
		t.Errorf("TrackedLen() = %d after disabled Touch, want 0", n)
	}

	n, err := ix.EvictIfNeeded(ctx)
	if err != nil {
		t.Fatalf("EvictIfNeeded() error = %v", err)
	}
	if n != 0 {
		t.Errorf("EvictIfNeeded() = %d, want 0", n)
	}
}

func TestIndex_EvictsOldestFirst(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()
	ix := New(mem, 2, nil)

	for _, k := range []string{"a", "b", "c"} {
		if err := mem.Put(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("Put(%q) error = %v", k, err)
		}
		if err := ix.Touch(ctx, k); err != nil {
			t.Fatalf("Touch(%q) error = %v", k, err)
		}
	}

	n, err := ix.EvictIfNeeded(ctx)
	if err != nil {
		t.Fatalf("EvictIfNeeded() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("EvictIfNeeded() = %d, want 1", n)
	}

	// "a" was touched first and never again, so it goes.
	if _, err := mem.Get(ctx, "a"); err == nil {
		t.Error("oldest entry survived eviction")
	}
	for _, k := range []string{"b", "c"} {
		if _, err := mem.Get(ctx, k); err != nil {
			t.Errorf("Get(%q) after eviction error = %v", k, err)
		}
	}
	if card, _ := ix.Len(ctx); card != 2 {
		t.Errorf("Len() after eviction = %d, want 2", card)
	}
}

func TestIndex_TouchRefreshesRecency(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()
	ix := New(mem, 2, nil)

	for _, k := range []string{"a", "b"} {
		mem.Put(ctx, k, []byte(k), 0)
		ix.Touch(ctx, k)
	}

	// Re-touch "a": now "b" is the eviction victim.
	if err := ix.Touch(ctx, "a"); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	mem.Put(ctx, "c", []byte("c"), 0)
	ix.Touch(ctx, "c")

	if _, err := ix.EvictIfNeeded(ctx); err != nil {
		t.Fatalf("EvictIfNeeded() error = %v", err)
	}
	if _, err := mem.Get(ctx, "b"); err == nil {
		t.Error("least recently used entry survived eviction")
	}
	if _, err := mem.Get(ctx, "a"); err != nil {
		t.Errorf("recently touched entry was evicted: %v", err)
	}
}

func TestIndex_WithinCapacityNoEviction(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()
	ix := New(mem, 5, nil)

	for _, k := range []string{"a", "b"} {
		mem.Put(ctx, k, []byte(k), 0)
		ix.Touch(ctx, k)
	}

	n, err := ix.EvictIfNeeded(ctx)
	if err != nil {
		t.Fatalf("EvictIfNeeded() error = %v", err)
	}
	if n != 0 {
		t.Errorf("EvictIfNeeded() = %d below capacity, want 0", n)
	}
}

func TestIndex_ScoresStrictlyIncrease(t *testing.T) {
	// A frozen clock must still produce distinct, increasing scores.
	frozen := time.Unix(1000, 0)
	ix := New(memstore.New(), 1, func() time.Time { return frozen })

	prev := ix.nextScore()
	for i := 0; i < 1000; i++ {
		s := ix.nextScore()
		if s <= prev {
			t.Fatalf("nextScore() = %d after %d, want strictly increasing", s, prev)
		}
		prev = s
	}
}

func TestIndex_ScoresStrictlyIncreaseConcurrent(t *testing.T) {
	frozen := time.Unix(1000, 0)
	ix := New(memstore.New(), 1, func() time.Time { return frozen })

	const (
		workers = 8
		perG    = 500
	)
	scores := make([][]int64, workers)
	var wg sync.WaitGroup
	for g := 0; g < workers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			out := make([]int64, perG)
			for i := range out {
				out[i] = ix.nextScore()
			}
			scores[g] = out
		}(g)
	}
	wg.Wait()

	seen := make(map[int64]bool, workers*perG)
	for _, out := range scores {
		for _, s := range out {
			if seen[s] {
				t.Fatalf("duplicate score %d across goroutines", s)
			}
			seen[s] = true
		}
	}
}
