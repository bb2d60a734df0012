package memocache

import (
	"time"

	"go.uber.org/zap"

	"github.com/quillback/memocache/internal/stats"
	"github.com/quillback/memocache/internal/store"
	"github.com/quillback/memocache/internal/valuecodec"
	"github.com/quillback/memocache/internal/valuecodec/msgpackcodec"
)

// DefaultNamespace prefixes keys when no namespace is configured.
const DefaultNamespace = "memocache"

// Option configures a Cache.
type Option interface {
	apply(*options)
}

// options holds the cache configuration.
type options struct {
	store       store.Store
	codec       valuecodec.Codec
	collector   stats.Collector
	logger      *zap.Logger
	namespace   string
	defaultTTL  time.Duration
	maxSize     int
	waitTimeout time.Duration
	waiterRetry bool
	now         func() time.Time
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		codec:       msgpackcodec.New(),
		collector:   stats.NewNoop(),
		logger:      zap.NewNop(),
		namespace:   DefaultNamespace,
		waiterRetry: true,
		now:         time.Now,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithStore sets the storage backend. Required.
func WithStore(s store.Store) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithValueCodec sets the value serialization codec.
// If not set, the versioned msgpack codec is used.
func WithValueCodec(c valuecodec.Codec) Option {
	return optionFunc(func(o *options) {
		o.codec = c
	})
}

// WithNamespace prefixes every key, allowing multiple tenants to share one
// store. If not set, DefaultNamespace is used.
func WithNamespace(ns string) Option {
	return optionFunc(func(o *options) {
		o.namespace = ns
	})
}

// WithDefaultTTL applies ttl to every stored entry. Zero means entries do
// not expire.
func WithDefaultTTL(ttl time.Duration) Option {
	return optionFunc(func(o *options) {
		o.defaultTTL = ttl
	})
}

// WithMaxSize bounds the cache to n entries with LRU eviction. Zero means
// unbounded; the recency index is then not maintained.
func WithMaxSize(n int) Option {
	return optionFunc(func(o *options) {
		o.maxSize = n
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.collector = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithWaitTimeout bounds how long a caller blocks on another caller's
// in-flight fill before failing with ErrWaitTimeout. Zero waits forever.
func WithWaitTimeout(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.waitTimeout = d
	})
}

// WithWaiterRetry controls what callers that waited on a failed fill do:
// retry the full lookup-then-fill sequence (true, the default) or receive
// the shared error (false). The latter trades freshness for protection
// against thundering retries under sustained upstream failure.
func WithWaiterRetry(retry bool) Option {
	return optionFunc(func(o *options) {
		o.waiterRetry = retry
	})
}

// WithClock overrides the time source used for recency scores.
// Useful for deterministic tests.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		o.now = now
	})
}
