package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by a shared Redis instance, for deployments
// where several replicas should share one cache.
type RedisStore struct {
	client     *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
}

// RedisConfig defines the Redis connection settings.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	KeyPrefix  string
	DefaultTTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg *RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:     client,
		keyPrefix:  cfg.KeyPrefix,
		defaultTTL: cfg.DefaultTTL,
	}, nil
}

func (rs *RedisStore) prefixed(key string) string {
	if rs.keyPrefix == "" {
		return key
	}
	return rs.keyPrefix + ":" + key
}

// Get retrieves a value from Redis. Transport errors count as misses so one
// flaky round-trip never blocks a report.
func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := rs.client.Get(ctx, rs.prefixed(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: redis get %s: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

// Set stores a value with the given TTL.
func (rs *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl == 0 {
		ttl = rs.defaultTTL
	}
	if err := rs.client.Set(ctx, rs.prefixed(key), value, ttl).Err(); err != nil {
		log.Printf("cache: redis set %s: %v", key, err)
	}
}

// Clear removes all entries under the store's prefix.
func (rs *RedisStore) Clear(ctx context.Context) error {
	pattern := rs.prefixed("*")
	iter := rs.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := rs.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Close releases the Redis connection.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
