// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache stores generated text keyed by a hash of the request that
// produced it. A Cache is an explicit object with an Init/Clear lifecycle,
// injected into the generation gateway and the research aggregator.
//
// Entries never expire unless a backend is configured with a bound: the
// memory backend evicts least recently used entries past MaxEntries and the
// redis backend honours a TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"time"

	"github.com/pdiddy/article-engine/pkg/types"
)

// Cache is a concurrent-safe string store.
type Cache interface {
	// Init prepares the backend for use. It is safe to call more than once.
	Init(ctx context.Context) error

	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Entry is one cached value.
type Entry struct {
	Key       string    `json:"key" yaml:"key"`
	Value     string    `json:"value" yaml:"value"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Key derives the cache key for a generation request. The key is the
// SHA-256 hex digest of prompt, model, and temperature joined by "|".
func Key(prompt, model string, temperature float64) string {
	h := sha256.New()
	h.Write([]byte(prompt))
	h.Write([]byte("|"))
	h.Write([]byte(model))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.FormatFloat(temperature, 'g', -1, 64)))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Open builds the backend selected by cfg and initialises it.
func Open(ctx context.Context, cfg types.CacheConfig) (Cache, error) {
	var c Cache
	switch cfg.Backend {
	case "", "memory":
		c = NewMemory(cfg.MaxEntries)
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "articles/cache.db"
		}
		c = NewSQLite(path)
	case "redis":
		c = NewRedis(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	if err := c.Init(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialising %s cache: %w", cfg.Backend, err)
	}
	return c, nil
}
