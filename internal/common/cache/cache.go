package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"moments-backend/internal/platform/redis"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = stderrors.New("cache miss")

// CacheService stores JSON values in redis.
type CacheService struct {
	redisClient redis.RedisClient
}

func NewCacheService(redisClient redis.RedisClient) *CacheService {
	return &CacheService{
		redisClient: redisClient,
	}
}

func (c *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return c.redisClient.Set(ctx, key, string(data), ttl).Err()
}

// Take reads and deletes key atomically, so a value is handed out once.
func (c *CacheService) Take(ctx context.Context, key string, dest interface{}) error {
	data, err := c.redisClient.GetDel(ctx, key).Result()
	if err != nil {
		return missOr(err)
	}
	return json.Unmarshal([]byte(data), dest)
}

func missOr(err error) error {
	if stderrors.Is(err, goredis.Nil) {
		return ErrMiss
	}
	return err
}
