// Package memoryfx provides an fx module for a memory-backed cache.
// Useful for testing.
package memoryfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/quillback/memocache"
	"github.com/quillback/memocache/internal/stats"
	"github.com/quillback/memocache/internal/stats/logger"
	"github.com/quillback/memocache/internal/store/memstore"
)

// Module provides a memory-backed *memocache.Cache.
// Requires a *zap.Logger to be provided.
var Module = fx.Module("memocache-memory",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newCache,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("memocache.stats"))
}

func newMemStore() *memstore.Store {
	return memstore.New()
}

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store
	Lifecycle fx.Lifecycle
}

// Result holds the provided cache and store.
type Result struct {
	fx.Out

	Cache *memocache.Cache
	Store *memstore.Store // Exposed for test setup
}

func newCache(p Params) (Result, error) {
	cache, err := memocache.New(
		memocache.WithStore(p.Store),
		memocache.WithStats(p.Collector),
		memocache.WithLogger(p.Logger.Named("memocache")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return cache.Close()
		},
	})

	return Result{
		Cache: cache,
		Store: p.Store,
	}, nil
}
