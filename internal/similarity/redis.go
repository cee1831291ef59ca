// Cinegraph - Movie Catalog and Recommendation Platform
// Copyright 2026 O. Konrad (okonrad)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okonrad/cinegraph

package similarity

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis-backed PairCache for multi-instance deployments.
// Scores are stored as JSON values with a server-side TTL; user versions
// are plain counters advanced with INCR so every instance observes an
// invalidation immediately.
type RedisCache struct {
	client *redis.Client
}

var _ PairCache = (*RedisCache)(nil)

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(addr string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisCache{client: client}, nil
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetScore implements PairCache.
func (c *RedisCache) GetScore(ctx context.Context, key string) (Score, bool, error) {
	data, err := c.client.Get(ctx, scoreKey(key)).Bytes()
	if err == redis.Nil {
		return Score{}, false, nil
	}
	if err != nil {
		return Score{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var score Score
	if err := json.Unmarshal(data, &score); err != nil {
		// A corrupt entry counts as a miss; it will be overwritten.
		return Score{}, false, nil
	}
	return score, true, nil
}

// SetScore implements PairCache.
func (c *RedisCache) SetScore(ctx context.Context, key string, score Score, ttl time.Duration) error {
	data, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to marshal score: %w", err)
	}
	if err := c.client.Set(ctx, scoreKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Version implements PairCache.
func (c *RedisCache) Version(ctx context.Context, userID string) (int64, error) {
	version, err := c.client.Get(ctx, versionKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version failed: %w", err)
	}
	return version, nil
}

// BumpVersion implements PairCache.
func (c *RedisCache) BumpVersion(ctx context.Context, userID string) error {
	if err := c.client.Incr(ctx, versionKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis incr version failed: %w", err)
	}
	return nil
}

// Purge implements PairCache. Score keys are walked with SCAN so large
// caches do not block the server the way KEYS would.
func (c *RedisCache) Purge(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, scoreKey("*"), 256).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del failed: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}
	return nil
}

func scoreKey(key string) string {
	return "cinegraph:sim:" + key
}

func versionKey(userID string) string {
	return "cinegraph:simver:" + userID
}
