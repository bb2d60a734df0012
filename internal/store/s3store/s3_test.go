package s3store

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c", "a/b/c/"},
		{"a/b/c/", "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := &Store{}
			if err := WithPrefix(tt.input)(s); err != nil {
				t.Fatalf("WithPrefix() error = %v", err)
			}
			if s.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", s.prefix, tt.want)
			}
		})
	}
}

func TestStore_objectKey(t *testing.T) {
	tests := []struct {
		prefix string
		key    string
		want   string
	}{
		{"", "ns:f/abc", "ns:f/abc"},
		{"caches/", "ns:f/abc", "caches/ns:f/abc"},
	}

	for _, tt := range tests {
		s := &Store{prefix: tt.prefix}
		if got := s.objectKey(tt.key); got != tt.want {
			t.Errorf("objectKey(%q) with prefix %q = %q, want %q", tt.key, tt.prefix, got, tt.want)
		}
	}
}

func TestExpiredMeta(t *testing.T) {
	now := time.Unix(1000, 0)

	tests := []struct {
		name string
		meta map[string]string
		want bool
	}{
		{"no metadata", nil, false},
		{"no expiry key", map[string]string{"other": "x"}, false},
		{"future expiry", map[string]string{expiresKey: strconv.FormatInt(now.Add(time.Minute).UnixNano(), 10)}, false},
		{"elapsed expiry", map[string]string{expiresKey: strconv.FormatInt(now.Add(-time.Minute).UnixNano(), 10)}, true},
		{"exactly now", map[string]string{expiresKey: strconv.FormatInt(now.UnixNano(), 10)}, true},
		{"garbage value", map[string]string{expiresKey: "not-a-number"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expiredMeta(tt.meta, now); got != tt.want {
				t.Errorf("expiredMeta() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_NoRecencyIndex(t *testing.T) {
	s := &Store{}
	ctx := context.Background()

	if s.TracksRecency() {
		t.Error("TracksRecency() = true, want false")
	}
	if err := s.Touch(ctx, "k", 1); err != nil {
		t.Errorf("Touch() error = %v, want nil no-op", err)
	}
	if keys, err := s.OldestN(ctx, 5); err != nil || keys != nil {
		t.Errorf("OldestN() = %v, %v, want nil, nil", keys, err)
	}
	if err := s.Untrack(ctx, "k"); err != nil {
		t.Errorf("Untrack() error = %v, want nil no-op", err)
	}
	if n, err := s.TrackedLen(ctx); err != nil || n != 0 {
		t.Errorf("TrackedLen() = %d, %v, want 0, nil", n, err)
	}
}
