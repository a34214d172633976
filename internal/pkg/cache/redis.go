package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rollup"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Connect dials Redis and falls back to a no-op cache when addr is empty
// or the server does not answer.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) (RollupCache, func() error) {
	if addr == "" {
		slog.Warn("REDIS_ADDR is not set, rollup caching is disabled")
		return NewNop(), func() error { return nil }
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Error("Failed to connect to Redis, rollup caching is disabled", "addr", addr, "error", err)
		client.Close()
		return NewNop(), func() error { return nil }
	}

	slog.Info("Connected to Redis", "addr", addr)
	return NewRedisCache(client, ttl), client.Close
}

const epochKey = keyPrefix + ":epoch"

func versionKey(month string) string {
	return fmt.Sprintf("%s:%s:version", keyPrefix, month)
}

func hashKey(token Token) string {
	return fmt.Sprintf("%s:%s:e%d:v%d", keyPrefix, token.Month, token.Epoch, token.Version)
}

func (c *RedisCache) versions(ctx context.Context, month string) (Token, error) {
	values, err := c.client.MGet(ctx, epochKey, versionKey(month)).Result()
	if err != nil {
		return Token{}, err
	}

	token := Token{Month: month}
	for i, dst := range []*int64{&token.Epoch, &token.Version} {
		raw, ok := values[i].(string)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Token{}, fmt.Errorf("corrupt rollup version: %w", err)
		}
		*dst = parsed
	}
	return token, nil
}

func (c *RedisCache) Lookup(ctx context.Context, month, key string, dst any) (bool, Token, error) {
	token, err := c.versions(ctx, month)
	if err != nil {
		return false, Token{}, fmt.Errorf("failed to read rollup version: %w", err)
	}

	raw, err := c.client.HGet(ctx, hashKey(token), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, token, nil
		}
		return false, token, fmt.Errorf("failed to read rollup: %w", err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, token, fmt.Errorf("failed to decode rollup %s: %w", key, err)
	}
	return true, token, nil
}

func (c *RedisCache) Store(ctx context.Context, token Token, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode rollup %s: %w", key, err)
	}

	hash := hashKey(token)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hash, key, raw)
		pipe.Expire(ctx, hash, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store rollup: %w", err)
	}
	return nil
}

// Invalidate bumps the month's version. Entries under older versions expire on their own.
func (c *RedisCache) Invalidate(ctx context.Context, month string) error {
	if err := c.client.Incr(ctx, versionKey(month)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate rollups for %s: %w", month, err)
	}
	return nil
}

func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, epochKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate rollups: %w", err)
	}
	return nil
}
