package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

var _ CacheStore = (*RedisStore)(nil)

const redisKeyPrefix = "lottostats:stats:"

// RedisStore keeps entries as JSON strings. A single SET is atomic for readers.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis. ttl of zero keeps entries until overwritten.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

func (r *RedisStore) Write(ctx context.Context, key string, entry models.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	return r.client.Set(ctx, redisKey(key), data, r.ttl).Err()
}

func (r *RedisStore) Read(ctx context.Context, key string) (models.CacheEntry, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.CacheEntry{}, ErrNotFound
	}
	if err != nil {
		return models.CacheEntry{}, fmt.Errorf("failed to get %s: %w", key, err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return models.CacheEntry{}, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return entry, nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
