// Package redis builds the shared go-redis client used by the
// parameter resolver cache and the bureau report cache.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"lendgate/internal/platform/config"
)

// Client embeds the go-redis client so callers can hand the raw client
// to cache constructors.
type Client struct {
	*redis.Client
}

// New creates a Redis client from the provided configuration and
// verifies connectivity. Returns nil when no URL is configured; callers
// fall back to in-process caches.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}
