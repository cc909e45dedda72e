// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/discovery-engine/pkg/types"
)

// RedisStore keeps values as Redis strings and lists as Redis lists.
type RedisStore struct {
	client *redis.Client
}

// OpenRedis connects to the server in cfg and verifies it with PING.
func OpenRedis(ctx context.Context, cfg types.StoreConfig) (*RedisStore, error) {
	if cfg.RedisAddr == "" {
		return nil, errors.New("redis store requires an address")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	return &RedisStore{client: client}, nil
}

// Get returns the value at key, or nil when the key does not exist.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return b, nil
}

// Set writes the value at key with an optional expiry.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Append pushes item onto the list and refreshes the expiry atomically.
func (r *RedisStore) Append(ctx context.Context, listKey string, item []byte, ttl time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, listKey, item)
		if ttl > 0 {
			pipe.Expire(ctx, listKey, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("appending to %s: %w", listKey, err)
	}
	return nil
}

// GetList returns the whole list in push order.
func (r *RedisStore) GetList(ctx context.Context, listKey string) ([][]byte, error) {
	vals, err := r.client.LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading list %s: %w", listKey, err)
	}
	if len(vals) == 0 {
		return nil, nil
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// Close closes the client connection pool.
func (r *RedisStore) Close() error { return r.client.Close() }
