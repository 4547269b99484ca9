package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rajmohan-121/Ai-Tool-Finder/internal/domain"
)

const (
	toolListPrefix = "toolfinder:tools:"
	scanBatch      = 100
)

// ToolListCache caches tool listings in Redis keyed by filter.
type ToolListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewToolListCache creates a Redis-backed tool list cache.
func NewToolListCache(client *redis.Client, ttl time.Duration) *ToolListCache {
	return &ToolListCache{client: client, ttl: ttl}
}

// Key returns the cache key for filter. Equivalent filters share a key.
func Key(filter domain.ToolFilter) string {
	v := url.Values{}
	if filter.Category != nil {
		v.Set("category", *filter.Category)
	}
	if filter.Pricing != nil {
		v.Set("pricing", *filter.Pricing)
	}
	if filter.MinRating != nil {
		v.Set("min_rating", strconv.FormatFloat(*filter.MinRating, 'f', -1, 64))
	}
	if len(v) == 0 {
		return toolListPrefix + "all"
	}
	return toolListPrefix + v.Encode()
}

// Get returns the cached listing for filter. A miss is (nil, false, nil).
func (c *ToolListCache) Get(ctx context.Context, filter domain.ToolFilter) ([]domain.Tool, bool, error) {
	data, err := c.client.Get(ctx, Key(filter)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get tool list: %w", err)
	}

	var tools []domain.Tool
	if err := json.Unmarshal(data, &tools); err != nil {
		return nil, false, fmt.Errorf("unmarshal tool list: %w", err)
	}
	return tools, true, nil
}

// Set stores a listing with the configured TTL.
func (c *ToolListCache) Set(ctx context.Context, filter domain.ToolFilter, tools []domain.Tool) error {
	data, err := json.Marshal(tools)
	if err != nil {
		return fmt.Errorf("marshal tool list: %w", err)
	}
	if err := c.client.Set(ctx, Key(filter), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set tool list: %w", err)
	}
	return nil
}

// Invalidate drops every cached listing.
func (c *ToolListCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, toolListPrefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan tool lists: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del tool lists: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
