package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for the application cache. Namespaced
// keys ("<namespace>:<id>") let the storage recovery path clear one
// corrupted namespace without touching the rest.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// expendablePrefix marks derived entries that can always be rebuilt from
// the source of truth (rendered previews, resolved lookups).
const expendablePrefix = "expendable:"

// Set stores a value under "<namespace>:<id>" with an optional TTL.
func (c *Client) Set(ctx context.Context, namespace, id string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, namespace+":"+id, value, ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Get fetches a value by namespace and id. Returns found=false on a miss.
func (c *Client) Get(ctx context.Context, namespace, id string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, namespace+":"+id).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get failed: %w", err)
	}
	return val, true, nil
}

// Clear removes every key in the given namespace. Used by the storage
// recovery path when a namespace is suspected corrupt.
func (c *Client) Clear(ctx context.Context, namespace string) error {
	return c.deleteByPattern(ctx, namespace+":*")
}

// EvictExpendable drops all rebuildable entries and returns how many
// keys were freed. Used by the low-space recovery path.
func (c *Client) EvictExpendable(ctx context.Context) (int64, error) {
	var freed int64
	iter := c.rdb.Scan(ctx, 0, expendablePrefix+"*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			n, err := c.rdb.Del(ctx, batch...).Result()
			freed += n
			if err != nil {
				return freed, fmt.Errorf("del failed: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return freed, fmt.Errorf("scan failed: %w", err)
	}
	if len(batch) > 0 {
		n, err := c.rdb.Del(ctx, batch...).Result()
		freed += n
		if err != nil {
			return freed, fmt.Errorf("del failed: %w", err)
		}
	}
	return freed, nil
}

// Health verifies the connection is alive.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("del failed: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if len(batch) > 0 {
		if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("del failed: %w", err)
		}
	}
	return nil
}
