package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/platform/obs"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Stop using Redis after the first failed command.
	DisableOnError bool
}

// RedisRouteCache stores routed paths in Redis with graceful fallback:
// when Redis is unreachable every lookup is a miss.
type RedisRouteCache struct {
	client *redis.Client
	logger zerolog.Logger
	cfg    RedisConfig

	mu       sync.RWMutex
	disabled bool
}

// NewRedisRouteCache connects to Redis. An unreachable server yields a
// disabled cache, not an error.
func NewRedisRouteCache(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) *RedisRouteCache {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
	})

	c := &RedisRouteCache{
		client: client,
		logger: logger.With().Str("component", "route_cache").Logger(),
		cfg:    cfg,
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		c.logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis unavailable, routing without cache")
		c.disabled = true
		return c
	}

	c.logger.Info().Str("addr", cfg.Addr).Msg("Redis route cache initialized")
	return c
}

func (c *RedisRouteCache) Close() error {
	return c.client.Close()
}

// IsAvailable returns true if the cache is operational.
func (c *RedisRouteCache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled
}

func (c *RedisRouteCache) handleError(err error, operation string) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.cfg.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling route cache due to Redis error")
	}
}

func (c *RedisRouteCache) GetRoute(ctx context.Context, key string) (_ domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.redis.Get")(&err)

	if !c.IsAvailable() {
		return domain.Route{}, false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Route{}, false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return domain.Route{}, false, fmt.Errorf("redis get %q: %w", key, err)
	}

	var route domain.Route
	if err := json.Unmarshal(data, &route); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached route")
		return domain.Route{}, false, nil
	}

	c.logger.Debug().Str("key", key).Int("segments", len(route.Segments)).Msg("route cache hit")
	return route, true, nil
}

func (c *RedisRouteCache) PutRoute(ctx context.Context, key string, route domain.Route, ttl time.Duration) (err error) {
	defer obs.Time(ctx, "route.cache.redis.Put")(&err)

	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("marshal cached route: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Invalidate drops every cached route, e.g. after changing truck restrictions.
func (c *RedisRouteCache) Invalidate(ctx context.Context) error {
	if !c.IsAvailable() {
		return nil
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, "hos:route:*", 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete_batch")
				return fmt.Errorf("redis delete: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
