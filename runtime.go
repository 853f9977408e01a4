package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"labdesk/internal/apiclient"
	"labdesk/internal/cache"
	"labdesk/internal/calendar"
	"labdesk/internal/config"
	"labdesk/internal/services"
	"labdesk/internal/store"
	"labdesk/internal/tokenstore"
)

// runtime is everything a command needs to talk to the backend.
type runtime struct {
	db       *sql.DB
	rdb      *redis.Client
	tokens   *tokenstore.Store
	registry *services.Registry
	calendar *calendar.Aggregator
	loc      *time.Location
}

func openRuntime(ctx context.Context, cfg *config.Config, log *zap.Logger) (*runtime, error) {
	rt := &runtime{}
	var err error
	if rt.loc, err = cfg.Location(); err != nil {
		return nil, err
	}

	rt.db, err = store.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Storage.DBPath, err)
	}
	if cfg.Storage.Secret == "" {
		log.Warn("storage.secret is empty, tokens are sealed with a development key")
	}
	rt.tokens, err = tokenstore.New(rt.db, cfg.Storage.Secret)
	if err != nil {
		rt.Close()
		return nil, err
	}

	ttl, _ := cfg.CacheTTL()
	var c cache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		rt.rdb = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rt.rdb.Ping(pingCtx).Err(); err != nil {
			rt.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.Cache.RedisAddr, err)
		}
		c = cache.NewRedis(rt.rdb, cfg.Cache.Namespace, ttl, log)
	default:
		c = cache.NewMemory(cfg.Cache.Namespace, ttl)
	}

	timeout, _ := cfg.APITimeout()
	client := apiclient.New(cfg.API.URL, rt.tokens,
		apiclient.WithTimeout(timeout),
		apiclient.WithLogger(log))
	rt.registry = services.NewRegistry(client, c, log, nil)
	rt.calendar = calendar.NewAggregator(calendar.SourcesFromRegistry(rt.registry), rt.loc, log)
	log.Info("runtime ready",
		zap.String("api", cfg.API.URL),
		zap.String("cache", cfg.Cache.Backend),
		zap.String("db", cfg.Storage.DBPath))
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.rdb != nil {
		rt.rdb.Close()
	}
	if rt.db != nil {
		rt.db.Close()
	}
}
