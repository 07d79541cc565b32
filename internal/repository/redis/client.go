// Package redis holds the gateway's only local state: the session
// detail cache and the rate-limit counters. Both are disposable; losing
// redis loses nothing the backend cannot reconstruct.
package redis

import (
	"context"
	"fmt"

	"github.com/avelsk/tutor-gateway/internal/config"
	"github.com/redis/go-redis/v9"
)

// Client wraps the redis connection shared by the cache and the rate
// limiter.
type Client struct {
	rdb *redis.Client
}

// NewClient dials redis and verifies the connection with a ping, so a
// bad address fails at startup rather than on the first request.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close releases the underlying connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}
