// internal/infrastructure/database/redis/connection.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	revokedTokenPrefix = "auth:revoked:"
	rateLimitPrefix    = "rate_limit:"
)

// Client wraps the Redis client
type Client struct {
	Redis *redis.Client
	log   logrus.FieldLogger
}

// NewClient builds a client without touching the network
func NewClient(cfg *config.Config, log logrus.FieldLogger) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})
	return &Client{Redis: rdb, log: log}
}

// NewConnection creates a client and checks that the server answers
func NewConnection(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Client, error) {
	client := NewClient(cfg, log)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Redis.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.WithField("addr", cfg.GetRedisAddr()).Info("Redis connection established")
	return client, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.Redis.Close()
}

// Health checks the Redis connection health
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return c.Redis.Ping(ctx).Err()
}

// RevokeToken blacklists a token id for ttl
func (c *Client) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	return c.Redis.Set(ctx, RevokedTokenKey(jti), 1, ttl).Err()
}

// IsTokenRevoked reports whether a token id is blacklisted
func (c *Client) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	count, err := c.Redis.Exists(ctx, RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Hit counts one request for subject in the current fixed window and returns
// the count so far together with the time the window resets.
func (c *Client) Hit(ctx context.Context, subject string, window time.Duration) (int64, time.Time, error) {
	key := RateLimitKey(subject)

	pipe := c.Redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	reset := time.Now().Add(window)
	if d := ttl.Val(); d > 0 {
		reset = time.Now().Add(d)
	}
	return incr.Val(), reset, nil
}

// RevokedTokenKey returns the blacklist key of a token id
func RevokedTokenKey(jti string) string {
	return revokedTokenPrefix + jti
}

// RateLimitKey returns the counter key of a rate limited subject
func RateLimitKey(subject string) string {
	return rateLimitPrefix + subject
}
