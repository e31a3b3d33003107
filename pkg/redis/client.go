package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// Key patterns, without environment prefix
const (
	KeyPostChannel     = "post:%s:options"      // realtime channel for one post
	KeyFinalizedHandle = "payment:finalized:%s" // setup intent already finalized
)

// TTL constants
const (
	TTLFinalizedHandle = 24 * time.Hour // setup intents are not reusable after a day
)

// NewClient creates a new Redis client and verifies the connection
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// A client process holds few connections: one per subscribed post plus commands
	opts.PoolSize = 10
	opts.MinIdleConns = 1
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// SetNX sets a value only if it doesn't exist
func (c *Client) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	start := time.Now()
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	dur := time.Since(start)
	if err != nil {
		c.log.Info("redis_setnx",
			zap.String("key_prefix", prefixForLog(key)),
			zap.Duration("duration", dur),
			zap.Error(err))
	} else {
		c.log.Debug("redis_setnx",
			zap.String("key_prefix", prefixForLog(key)),
			zap.Bool("result", ok),
			zap.Duration("duration", dur))
	}
	return ok, err
}

// Del deletes keys and returns how many existed
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	start := time.Now()
	n, err := c.rdb.Del(ctx, keys...).Result()
	dur := time.Since(start)
	if err != nil {
		c.log.Info("redis_del",
			zap.Int("keys", len(keys)),
			zap.Duration("duration", dur),
			zap.Error(err))
	} else {
		c.log.Debug("redis_del",
			zap.Int64("result", n),
			zap.Int("keys", len(keys)),
			zap.Duration("duration", dur))
	}
	return n, err
}

// Publish sends a message to a pub/sub channel and returns the receiver count
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) (int64, error) {
	start := time.Now()
	n, err := c.rdb.Publish(ctx, channel, payload).Result()
	dur := time.Since(start)
	if err != nil {
		c.log.Info("redis_publish",
			zap.String("key_prefix", prefixForLog(channel)),
			zap.Duration("duration", dur),
			zap.Error(err))
	} else {
		c.log.Debug("redis_publish",
			zap.String("key_prefix", prefixForLog(channel)),
			zap.Int64("receivers", n),
			zap.Int("bytes", len(payload)),
			zap.Duration("duration", dur))
	}
	return n, err
}

// Subscribe opens a pub/sub subscription and waits for the server confirmation
func (c *Client) Subscribe(ctx context.Context, channels ...string) (*redis.PubSub, error) {
	start := time.Now()
	ps := c.rdb.Subscribe(ctx, channels...)
	// Receive blocks until the subscription is acknowledged so that no
	// message published right after Subscribe returns is lost.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		c.log.Info("redis_subscribe",
			zap.Int("channels", len(channels)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	c.log.Debug("redis_subscribe",
		zap.Int("channels", len(channels)),
		zap.Duration("duration", time.Since(start)))
	return ps, nil
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	dur := time.Since(start)
	if err != nil {
		c.log.Info("redis_ping",
			zap.Duration("duration", dur),
			zap.Error(err))
	} else {
		c.log.Debug("redis_ping", zap.Duration("duration", dur))
	}
	return err
}

// prefixForLog returns a safe prefix of a key to avoid logging handles
func prefixForLog(key string) string {
	if len(key) <= 24 {
		return key
	}
	return key[:24] + "…"
}
