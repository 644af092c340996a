package redis

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Set stores a key with an optional expiration (0 means no expiry)
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		c.logger.Error("redis set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Get returns the value of a key. Returns ErrNil when the key does not exist.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !IsNil(err) {
			c.logger.Error("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return "", err
	}
	return val, nil
}

// Del removes one or more keys
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("redis del failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// Exists reports how many of the given keys exist
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.rdb.Exists(ctx, keys...).Result()
	if err != nil {
		c.logger.Error("redis exists failed", zap.Strings("keys", keys), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// Incr increments a counter key
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		c.logger.Error("redis incr failed", zap.String("key", key), zap.Error(err))
		return 0, err
	}
	return n, nil
}

// Expire sets a TTL on a key
func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) error {
	if err := c.rdb.Expire(ctx, key, expiration).Err(); err != nil {
		c.logger.Error("redis expire failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// TTL returns the remaining TTL of a key
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		c.logger.Error("redis ttl failed", zap.String("key", key), zap.Error(err))
		return 0, err
	}
	return d, nil
}

// Eval runs a Lua script against the given keys
func (c *Client) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	res, err := c.rdb.Eval(ctx, script, keys, args...).Result()
	if err != nil && !IsNil(err) {
		c.logger.Error("redis eval failed", zap.Error(err))
		return nil, err
	}
	return res, nil
}

// ZRemRangeByScore removes sorted-set members with scores in [min, max]
func (c *Client) ZRemRangeByScore(ctx context.Context, key, min, max string) error {
	if err := c.rdb.ZRemRangeByScore(ctx, key, min, max).Err(); err != nil {
		c.logger.Error("redis zremrangebyscore failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
