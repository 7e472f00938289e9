package redis

import (
	"context"
	"errors"
	"fmt"

	"booking-session-cache/internal/ports/output"

	goredis "github.com/redis/go-redis/v9"
)

// Compile-time check to ensure RedisStorage implements DurableStorage interface
var _ output.DurableStorage = (*RedisStorage)(nil)

// RedisStorage struct - Output adapter keeping the durable key-value store in redis.
// Values never expire; keys are namespaced with prefix.
type RedisStorage struct {
	client goredis.Cmdable
	prefix string
}

// NewRedisStorage creates a redis-backed storage
func NewRedisStorage(client goredis.Cmdable, prefix string) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisStorage) key(key string) string {
	return r.prefix + key
}

// Get returns the value stored under key
func (r *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key without expiry
func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key; deleting a missing key is not an error
func (r *RedisStorage) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
