// Package memocache provides persistent, shareable function memoization.
//
// Results are keyed by canonical argument encodings and stored through a
// pluggable backend, so they survive process restarts and can be shared by
// every process pointed at the same store. Concurrent misses on one key are
// collapsed to a single invocation of the wrapped function.
//
// Example usage:
//
//	cache, err := memocache.New(
//	    memocache.WithStore(memstore.New()),
//	    memocache.WithMaxSize(1024),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	lookup := memocache.Wrap(cache, "user.ByID", fetchUser)
//	user, err := lookup.Call(ctx, 42)
package memocache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/quillback/memocache/internal/keycodec"
	"github.com/quillback/memocache/internal/lruindex"
	"github.com/quillback/memocache/internal/stats"
	"github.com/quillback/memocache/internal/store"
	"github.com/quillback/memocache/internal/valuecodec"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNoStore indicates no store was provided to New.
	ErrNoStore = errors.New("memocache: no store provided")

	// ErrClosed indicates the cache has been closed.
	ErrClosed = errors.New("memocache: cache closed")

	// ErrWaitTimeout indicates a caller gave up waiting for another
	// caller's in-flight fill. Nothing in the store was mutated.
	ErrWaitTimeout = errors.New("memocache: timed out waiting for in-flight fill")

	// ErrNotEncodable indicates call arguments with no canonical
	// representation. The wrapped function is not invoked.
	ErrNotEncodable = keycodec.ErrNotEncodable

	// ErrValueNotEncodable indicates a computed result that cannot be
	// serialized. The result is returned to the caller but not cached.
	ErrValueNotEncodable = valuecodec.ErrEncode
)

// Call identifies one memoized invocation: a stable function identity plus
// its arguments. Named arguments are order-normalized, so permutations of
// the same set produce the same cache key.
type Call struct {
	Function string
	Args     []any
	Named    map[string]any
}

// Cache is a memoization engine bound to one storage backend.
// A Cache is safe for concurrent use by multiple goroutines.
type Cache struct {
	store       store.Store
	codec       valuecodec.Codec
	index       *lruindex.Index
	collector   stats.Collector
	logger      *zap.Logger
	namespace   string
	defaultTTL  time.Duration
	waitTimeout time.Duration
	waiterRetry bool

	flights singleflight.Group
	closed  atomic.Bool

	// statsMu orders Clear against counter updates and Info reads, so no
	// observer sees post-clear storage paired with pre-clear stats.
	statsMu sync.RWMutex
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// New creates a Cache with the given options. A store is required.
func New(opts ...Option) (*Cache, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.store == nil {
		return nil, ErrNoStore
	}
	if cfg.maxSize > 0 && !cfg.store.TracksRecency() {
		cfg.logger.Warn("store has no recency index; maxsize will not be enforced",
			zap.Int("maxsize", cfg.maxSize),
		)
	}

	return &Cache{
		store:       cfg.store,
		codec:       cfg.codec,
		index:       lruindex.New(cfg.store, cfg.maxSize, cfg.now),
		collector:   cfg.collector,
		logger:      cfg.logger,
		namespace:   cfg.namespace,
		defaultTTL:  cfg.defaultTTL,
		waitTimeout: cfg.waitTimeout,
		waiterRetry: cfg.waiterRetry,
	}, nil
}

// Do memoizes an ad-hoc call. On a miss, compute runs at most once per miss
// episode regardless of concurrent demand; its result is stored and shared.
// Most callers want the typed wrappers returned by Wrap instead.
func (c *Cache) Do(ctx context.Context, call Call, compute func(context.Context) (any, error)) (any, error) {
	return lookupOrFill(ctx, c, call, compute)
}

// Clear empties every entry in this cache's namespace and resets hit/miss
// statistics to zero, atomically with respect to Info.
func (c *Cache) Clear(ctx context.Context) error {
	return c.clearPrefix(ctx, c.namespace+":")
}

// Info reports cache statistics. CurrSize is -1 when the backend cannot
// count entries.
func (c *Cache) Info(ctx context.Context) (Info, error) {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()

	info := Info{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		MaxSize: c.index.MaxSize(),
	}

	var (
		n   int
		err error
	)
	if c.index.Enabled() {
		n, err = c.index.Len(ctx)
	} else {
		n, err = c.store.Len(ctx)
		if errors.Is(err, store.ErrLenUnknown) {
			info.CurrSize = SizeUnknown
			return info, nil
		}
	}
	if err != nil {
		return Info{}, fmt.Errorf("reading cache size: %w", err)
	}
	info.CurrSize = n
	return info, nil
}

// Close releases the underlying store. After Close, calls fail with
// ErrClosed.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return c.store.Close()
}

// lookupOrFill is the per-call state machine. It is a free function because
// methods cannot be generic.
func lookupOrFill[R any](ctx context.Context, c *Cache, call Call, compute func(context.Context) (R, error)) (R, error) {
	var zero R
	if c.closed.Load() {
		return zero, ErrClosed
	}

	key, err := keycodec.Encode(call.Function, call.Args, call.Named)
	if err != nil {
		return zero, err
	}
	full := c.namespace + ":" + key

	for {
		if v, ok := lookup[R](ctx, c, full); ok {
			c.countHit()
			c.touch(ctx, full)
			return v, nil
		}

		v, led, err := fill(ctx, c, full, compute)
		switch {
		case err == nil:
			if !led {
				// Served by another caller's fill: one logical call, one hit.
				c.countHit()
			}
			return v, nil
		case led || !c.waiterRetry:
			return zero, err
		}
		// The fill we waited on failed. Failures are never cached; retry
		// the full lookup-then-fill sequence.
	}
}

// lookup reads and decodes the entry for key. Backend read failures and
// undecodable bytes degrade to a miss (fail open).
func lookup[R any](ctx context.Context, c *Cache, key string) (R, bool) {
	var zero R

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("cache lookup failed; treating as miss",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return zero, false
	}

	var v R
	if err := c.codec.Decode(data, &v); err != nil {
		c.logger.Warn("undecodable cache entry; treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		return zero, false
	}
	return v, true
}

// fill acquires the single-flight slot for key and runs the fill once.
// led reports whether this caller's outcome is its own: true when its
// closure executed, and also on the timeout and cancellation branches,
// whose local errors must propagate rather than trigger waiter retry.
func fill[R any](ctx context.Context, c *Cache, key string, compute func(context.Context) (R, error)) (R, bool, error) {
	var (
		zero R
		led  atomic.Bool
	)

	ch := c.flights.DoChan(key, func() (any, error) {
		led.Store(true)

		// Re-check: the key may have been filled while we raced for the slot.
		if v, ok := lookup[R](ctx, c, key); ok {
			c.countHit()
			c.touch(ctx, key)
			return v, nil
		}

		// One miss per episode, however many callers are waiting.
		c.countMiss()

		v, err := compute(ctx)
		if err != nil {
			// The wrapped function's error propagates unchanged; failures
			// are never cached.
			return nil, err
		}

		data, err := c.codec.Encode(v)
		if err != nil {
			// A caller error, same as a function failure.
			return nil, err
		}

		if err := c.store.Put(ctx, key, data, c.defaultTTL); err != nil {
			// Best effort: the computed value still flows to callers;
			// caching silently degrades.
			c.logger.Warn("cache store failed; result not cached",
				zap.String("key", key),
				zap.Error(err),
			)
			return v, nil
		}

		c.touch(ctx, key)
		c.evict(ctx)
		return v, nil
	})

	var wait <-chan time.Time
	if c.waitTimeout > 0 {
		timer := time.NewTimer(c.waitTimeout)
		defer timer.Stop()
		wait = timer.C
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, led.Load(), res.Err
		}
		if res.Val == nil {
			// A nil result is a valid cached value (the assertion below
			// would reject it).
			return zero, led.Load(), nil
		}
		v, ok := res.Val.(R)
		if !ok {
			// Only possible if two wrappers share a function identity with
			// different result types.
			return zero, led.Load(), fmt.Errorf("memocache: in-flight fill for %q produced %T", key, res.Val)
		}
		return v, led.Load(), nil
	case <-ctx.Done():
		// Unblocks only this caller; the leader's fill keeps running.
		return zero, true, ctx.Err()
	case <-wait:
		return zero, true, fmt.Errorf("%w after %v", ErrWaitTimeout, c.waitTimeout)
	}
}

// funcPrefix returns the key prefix holding one function's entries.
func (c *Cache) funcPrefix(function string) string {
	return c.namespace + ":" + function + "/"
}

// clearPrefix removes every entry under prefix and zeroes the counters as
// one observable step.
func (c *Cache) clearPrefix(ctx context.Context, prefix string) error {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		return fmt.Errorf("enumerating cache entries: %w", err)
	}
	if len(keys) > 0 {
		if err := c.store.Delete(ctx, keys...); err != nil {
			return fmt.Errorf("deleting cache entries: %w", err)
		}
		if err := c.index.Untrack(ctx, keys...); err != nil {
			return fmt.Errorf("clearing recency index: %w", err)
		}
	}

	c.hits.Store(0)
	c.misses.Store(0)
	c.collector.Size(0)
	return nil
}

func (c *Cache) countHit() {
	c.statsMu.RLock()
	c.hits.Add(1)
	c.statsMu.RUnlock()
	c.collector.Hit()
}

func (c *Cache) countMiss() {
	c.statsMu.RLock()
	c.misses.Add(1)
	c.statsMu.RUnlock()
	c.collector.Miss()
}

// touch records recency. Index maintenance is advisory; failures must not
// surface to callers.
func (c *Cache) touch(ctx context.Context, key string) {
	if err := c.index.Touch(ctx, key); err != nil {
		c.logger.Warn("recency touch failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// evict runs the capacity check after a successful store.
func (c *Cache) evict(ctx context.Context) {
	n, err := c.index.EvictIfNeeded(ctx)
	if err != nil {
		c.logger.Warn("eviction pass failed", zap.Error(err))
	}
	if n > 0 {
		c.collector.Eviction(n)
	}
	if c.index.Enabled() {
		if size, err := c.index.Len(ctx); err == nil {
			c.collector.Size(size)
		}
	}
}
