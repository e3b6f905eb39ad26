package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tokenauth/token-service/internal/config"
)

const redisPingTimeout = 2 * time.Second

// Redis holds the client backing the principal cache. A Redis with a nil
// Client means caching is off.
type Redis struct {
	Client *redis.Client
}

// NewRedis creates the principal cache client. With a zero cache TTL no
// client is created. An unreachable server is logged, not fatal: the cache
// then degrades to misses.
func NewRedis(ctx context.Context, cfg config.RedisConfig, cacheTTL time.Duration, logger *zap.Logger) *Redis {
	if cacheTTL <= 0 {
		logger.Info("principal cache disabled; not connecting to redis")
		return &Redis{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("unable to reach redis; principal cache will miss", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Duration("principal_ttl", cacheTTL))
	}

	return &Redis{Client: client}
}

// Enabled reports whether a client was created.
func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r.Enabled() {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
