package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/chronos/internal/config"
	"github.com/Sternrassler/chronos/pkg/cache"
	"github.com/Sternrassler/chronos/pkg/client"
	"github.com/Sternrassler/chronos/pkg/history"
	"github.com/Sternrassler/chronos/pkg/logging"
	"github.com/Sternrassler/chronos/pkg/ratelimit"
)

// app holds the process-wide collaborators. Its lifecycle is owned by the
// command that built it.
type app struct {
	service  *history.Service
	upstream *client.Client
	store    cache.Store
	redis    *redis.Client
	logger   zerolog.Logger
	started  time.Time
}

// buildApp wires the acquisition pipeline from cfg. Redis backs the cache
// and the limiter when configured, memory otherwise.
func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(logging.Config{
		Level:  level,
		Pretty: cfg.Pretty(),
	})

	a := &app{logger: logger, started: time.Now()}

	var limiter ratelimit.Limiter
	if cfg.Redis.Enabled() {
		opts, err := cfg.Redis.Options()
		if err != nil {
			return nil, err
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")

		a.store = cache.NewRedis(a.redis)
		limiter = ratelimit.NewRedis(a.redis, logging.NewLogger("ratelimit"))
	} else {
		logger.Info().Msg("REDIS_URL not set, using in-memory cache and rate limiter")
		a.store = cache.NewMemory()
		limiter = ratelimit.NewMemory(logging.NewLogger("ratelimit"))
	}

	clientCfg := client.DefaultConfig()
	clientCfg.BaseURL = cfg.Upstream.BaseURL
	clientCfg.UserAgent = cfg.Upstream.UserAgent
	clientCfg.Timeout = cfg.Upstream.Timeout
	clientCfg.MaxRetries = cfg.Upstream.MaxRetries
	clientCfg.RequestsPerSecond = cfg.Upstream.RequestsPerSecond

	a.upstream, err = client.New(clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create wikipedia client: %w", err)
	}

	historyCfg := history.DefaultConfig()
	historyCfg.CacheWriteNonFatal = cfg.Cache.WriteNonFatal

	a.service, err = history.New(historyCfg, limiter, a.store, a.upstream, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create history service: %w", err)
	}

	return a, nil
}

// Close releases the Redis connection, if any.
func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
