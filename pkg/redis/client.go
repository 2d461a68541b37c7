package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds Redis configuration
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	Enabled      bool
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Client wraps the Redis client with helper methods
type Client struct {
	rdb     *redis.Client
	logger  *zap.Logger
	enabled bool
}

// NewClient creates a new Redis client. When Redis is disabled the returned
// client is a pass-through that reports cache misses for every operation.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if !config.Enabled {
		logger.Info("Redis is disabled, caching will be skipped")
		return &Client{enabled: false, logger: logger}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Connected to Redis",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.Int("db", config.DB),
	)

	return &Client{rdb: rdb, logger: logger, enabled: true}, nil
}

// IsEnabled reports whether Redis is available
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// Ping checks the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if !c.enabled {
		return nil
	}
	return c.rdb.Close()
}

// Get retrieves a JSON value from Redis and unmarshals it into dest.
// Returns false when the key does not exist or Redis is disabled.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.enabled {
		return false, nil
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return true, nil
}

// Set stores a value in Redis as JSON with a TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for cache: %w", err)
	}

	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Delete removes keys from Redis
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

// Increment increments a counter key and sets the expiry when the key is new.
// Returns the counter value after the increment.
func (c *Client) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	if !c.enabled {
		return 0, redis.ErrClosed
	}

	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr failed: %w", err)
	}

	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("redis expire failed: %w", err)
		}
	}

	return count, nil
}
