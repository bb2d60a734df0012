// Package redisfx provides an fx module for a Redis-backed cache shared
// across processes. The application provides the redis client; this
// module owns the cache lifecycle only.
package redisfx

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/quillback/memocache"
	"github.com/quillback/memocache/internal/stats"
	promstats "github.com/quillback/memocache/internal/stats/prometheus"
	"github.com/quillback/memocache/internal/store/redisstore"
)

// Module provides a Redis-backed *memocache.Cache.
// Requires a *zap.Logger, a redis.UniversalClient, and a Config.
var Module = fx.Module("memocache-redis",
	fx.Provide(
		newStatsCollector,
		newRedisStore,
		newCache,
	),
)

// Config carries the cache settings wired by the application.
type Config struct {
	Namespace string
	MaxSize   int
}

func newStatsCollector(cfg Config) stats.Collector {
	return promstats.New(prometheus.DefaultRegisterer, cfg.Namespace)
}

func newRedisStore(client redis.UniversalClient, cfg Config) *redisstore.Store {
	return redisstore.New(client, redisstore.WithPrefix(cfg.Namespace))
}

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Logger    *zap.Logger
	Collector stats.Collector
	Store     *redisstore.Store
	Config    Config
	Lifecycle fx.Lifecycle
}

func newCache(p Params) (*memocache.Cache, error) {
	cache, err := memocache.New(
		memocache.WithStore(p.Store),
		memocache.WithNamespace(p.Config.Namespace),
		memocache.WithMaxSize(p.Config.MaxSize),
		memocache.WithStats(p.Collector),
		memocache.WithLogger(p.Logger.Named("memocache")),
	)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return cache.Close()
		},
	})

	return cache, nil
}
