package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisCache stores values in Redis
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisCache connects to the Redis server at addr
func NewRedisCache(addr, password string, db int, logger *logrus.Logger) *RedisCache {
	return newRedisCache(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), logger)
}

func newRedisCache(client *redis.Client, logger *logrus.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

// Ping checks the connection
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get reports a miss for absent keys. Other failures are logged and also treated as a miss.
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		r.logger.WithError(err).WithField("key", key).Error("Redis get failed")
		return "", false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Close releases the client
func (r *RedisCache) Close() error {
	return r.client.Close()
}
