package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/tellsiddh/collections/internal/assetcache"
)

// CacheStorage keeps asset cache generations in Redis so cached assets
// survive restarts. Each generation is one hash of request key -> response.
type CacheStorage struct {
	client *redis.Client
}

// NewCacheStorage creates a Redis-backed asset cache storage
func NewCacheStorage(client *redis.Client) *CacheStorage {
	return &CacheStorage{client: client}
}

// Open returns the named generation, registering it when absent
func (s *CacheStorage) Open(ctx context.Context, name string) (assetcache.Cache, error) {
	if err := s.client.SAdd(ctx, CacheGenerationsKey(), name).Err(); err != nil {
		return nil, fmt.Errorf("failed to register cache generation: %w", err)
	}
	return &cache{client: s.client, key: CacheGenerationKey(name)}, nil
}

// Has reports whether the generation exists
func (s *CacheStorage) Has(ctx context.Context, name string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, CacheGenerationsKey(), name).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cache generation: %w", err)
	}
	return ok, nil
}

// Keys lists generation names
func (s *CacheStorage) Keys(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, CacheGenerationsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cache generations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a generation and all of its entries
func (s *CacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, CacheGenerationKey(name))
	removed := pipe.SRem(ctx, CacheGenerationsKey(), name)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to delete cache generation: %w", err)
	}
	return removed.Val() > 0, nil
}

type cache struct {
	client *redis.Client
	key    string
}

func (c *cache) Match(ctx context.Context, key string) (*assetcache.Response, error) {
	data, err := c.client.HGet(ctx, c.key, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, assetcache.ErrNotFound // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached response: %w", err)
	}

	var resp assetcache.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached response: %w", err)
	}
	resp.FromCache = true
	return &resp, nil
}

func (c *cache) Put(ctx context.Context, key string, resp *assetcache.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	if err := c.client.HSet(ctx, c.key, key, data).Err(); err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}

func (c *cache) Delete(ctx context.Context, key string) error {
	if err := c.client.HDel(ctx, c.key, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cached response: %w", err)
	}
	return nil
}

func (c *cache) Keys(ctx context.Context) ([]string, error) {
	keys, err := c.client.HKeys(ctx, c.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cached responses: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}
