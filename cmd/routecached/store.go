package main

import (
	"context"

	"github.com/jonwraymond/routecache/cache"
	"github.com/jonwraymond/routecache/config"
	"github.com/jonwraymond/routecache/observe"
	"github.com/jonwraymond/routecache/redisstore"
	"github.com/jonwraymond/routecache/sqlitestore"
)

// backend is the opened cache store. A nil store disables caching.
type backend struct {
	store cache.Store
	close func(context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config, logger observe.Logger) (backend, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		rs, err := redisstore.Initialize(ctx, cfg.RedisOptions(), logger)
		if err != nil {
			// routes still serve, uncached
			logger.Error(ctx, "redis cache store unavailable, caching disabled", observe.Field{Key: "error", Value: err})
			return backend{close: func(context.Context) error { return nil }}, nil
		}
		return backend{
			store: rs,
			close: func(ctx context.Context) error { return redisstore.Shutdown(ctx, rs) },
		}, nil

	case config.BackendSQLite:
		ss, err := sqlitestore.Open(ctx, cfg.SQLite.Path, logger)
		if err != nil {
			return backend{}, err
		}
		return backend{store: ss, close: func(context.Context) error { return ss.Close() }}, nil

	default:
		ms := cache.NewMemoryStore()
		return backend{store: ms, close: func(context.Context) error { return ms.Close() }}, nil
	}
}
