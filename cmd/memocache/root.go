package main

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/quillback/memocache/internal/store"
	"github.com/quillback/memocache/internal/store/redisstore"
	"github.com/quillback/memocache/internal/store/sqlitestore"
)

var (
	// Global flags.
	sqlitePath string
	redisAddr  string
	namespace  string
)

var rootCmd = &cobra.Command{
	Use:   "memocache",
	Short: "Inspect and maintain shared memoization stores",
	Long: `memocache operates on the stores used by the memocache library,
out-of-band of the processes filling them.

Examples:
  # Count entries in a SQLite-backed cache
  memocache stats --sqlite /var/cache/app.db

  # List one function's entries in a shared Redis cache
  memocache keys --redis localhost:6379 --prefix user.ByID/

  # Purge a namespace
  memocache clear --redis localhost:6379 --namespace myapp`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite", "", "path to a SQLite cache database")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "address of a Redis cache server")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", "memocache", "cache namespace to operate on")
}

// openStore builds the backend selected by the global flags.
func openStore(ctx context.Context) (store.Store, error) {
	switch {
	case sqlitePath != "" && redisAddr != "":
		return nil, errors.New("choose one of --sqlite or --redis")
	case sqlitePath != "":
		return sqlitestore.New(ctx, sqlitePath)
	case redisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		return redisstore.New(client, redisstore.WithPrefix(namespace)), nil
	default:
		return nil, errors.New("a store is required: pass --sqlite or --redis")
	}
}
