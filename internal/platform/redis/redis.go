package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"moments-backend/internal/common/config"
	"moments-backend/internal/common/logger"
)

// RedisClient is the subset of go-redis used by the cache, nonce store and
// event stream. *redis.Client satisfies it.
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// Open creates a client and pings it to validate the connection.
func Open(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	addr := cfg.RedisAddr()
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	logger.Info().Str("addr", addr).Int("db", cfg.Redis.DB).Msg("Redis client initialized")
	return c, nil
}
