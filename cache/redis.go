package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by Get for absent keys and by a nil Client.
var ErrMiss = redis.Nil

// Client is a thin wrapper over redis. A nil *Client is a valid, always
// empty cache.
type Client struct {
	rdb *redis.Client
}

// New connects to url, either a redis:// URL or a bare host:port. It returns
// nil when url is empty or the server does not answer a ping.
func New(ctx context.Context, url string) *Client {
	if url == "" {
		slog.Warn("[CACHE] ⚠️ REDIS_URL not set, running without cache")
		return nil
	}

	opts, err := options(url)
	if err != nil {
		slog.Warn("[CACHE] ⚠️ invalid REDIS_URL", "error", err)
		return nil
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("[CACHE] ⚠️ redis unavailable", "error", err)
		_ = rdb.Close()
		return nil
	}

	slog.Info("[CACHE] ✓ connected to redis", "addr", opts.Addr)
	return &Client{rdb: rdb}
}

// NewFromRedis wraps an existing client.
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func options(url string) (*redis.Options, error) {
	if strings.Contains(url, "://") {
		return redis.ParseURL(url)
	}
	return &redis.Options{Addr: url}, nil
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c == nil {
		return "", ErrMiss
	}
	return c.rdb.Get(ctx, key).Result()
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
