// Copyright (c) 2026 Comiket Bot. All rights reserved.

package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a [RateCache] backed by Redis, so every bot process shares
// one quote and one fetch schedule. The key expires on its own slightly
// after the converter would have considered it stale anyway.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache builds a cache for one currency pair. The key embeds the
// pair, so JPY→USD and JPY→EUR quotes never collide.
func NewRedisCache(client *redis.Client, from, to string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		key:    fmt.Sprintf("currency:rate:%s:%s", from, to),
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context) (Quote, bool, error) {
	payload, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Quote{}, false, nil
	}
	if err != nil {
		return Quote{}, false, fmt.Errorf("currency: cache read: %w", err)
	}

	var quote Quote
	if err := json.Unmarshal(payload, &quote); err != nil {
		// A corrupt value is as good as a miss; the converter refetches.
		return Quote{}, false, nil
	}

	return quote, true, nil
}

func (c *RedisCache) Set(ctx context.Context, quote Quote) error {
	payload, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("currency: cache encode: %w", err)
	}

	// Expiry is padded past the staleness window: the converter decides
	// freshness from FetchedAt, Redis only garbage-collects.
	if err := c.client.Set(ctx, c.key, payload, c.ttl+time.Minute).Err(); err != nil {
		return fmt.Errorf("currency: cache write: %w", err)
	}

	return nil
}

func (c *RedisCache) Reset(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("currency: cache reset: %w", err)
	}
	return nil
}
