// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisPrefix namespaces cache keys so Clear never touches unrelated data.
const redisPrefix = "article-engine:cache:"

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// TTL expires entries after the given duration, 0 for never.
	TTL time.Duration
}

// Redis shares cache entries between processes through a redis server.
type Redis struct {
	opts   RedisOptions
	client *redis.Client
}

// NewRedis returns a redis-backed cache. Call Init before use.
func NewRedis(opts RedisOptions) *Redis {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	return &Redis{opts: opts}
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{opts: RedisOptions{TTL: ttl}, client: client}
}

// Init connects to the server and verifies it responds.
func (r *Redis) Init(ctx context.Context) error {
	if r.client == nil {
		r.client = redis.NewClient(&redis.Options{
			Addr:     r.opts.Addr,
			Password: r.opts.Password,
			DB:       r.opts.DB,
		})
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// Get returns the value for key.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, redisPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache entry: %w", err)
	}
	return v, true, nil
}

// Set stores value under key.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, redisPrefix+key, value, r.opts.TTL).Err(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry under the cache prefix.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
