package winner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/spottheball/internal/spotball"
)

// Cache keeps the last computed result per competition. It is never the
// source of truth: a miss is always answered by recomputing.
type Cache interface {
	Get(ctx context.Context, competitionID string) (spotball.WinnerResult, bool, error)
	Set(ctx context.Context, r spotball.WinnerResult) error
	Invalidate(ctx context.Context, competitionID string) error
}

type MemoryCache struct {
	mu      sync.RWMutex
	results map[string]spotball.WinnerResult
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{results: make(map[string]spotball.WinnerResult)}
}

func (c *MemoryCache) Get(_ context.Context, competitionID string) (spotball.WinnerResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[competitionID]
	if ok {
		r.Entries = append([]spotball.WinnerEntry(nil), r.Entries...)
	}
	return r, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, r spotball.WinnerResult) error {
	r.Entries = append([]spotball.WinnerEntry(nil), r.Entries...)
	c.mu.Lock()
	c.results[r.CompetitionID] = r
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, competitionID string) error {
	c.mu.Lock()
	delete(c.results, competitionID)
	c.mu.Unlock()
	return nil
}

const redisKeyPrefix = "spottheball:winners:"

// RedisCache stores results as JSON under a per-competition key.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, competitionID string) (spotball.WinnerResult, bool, error) {
	var r spotball.WinnerResult
	data, err := c.client.Get(ctx, redisKeyPrefix+competitionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return r, false, nil
	}
	if err != nil {
		return r, false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, false, fmt.Errorf("decoding cached result: %w", err)
	}
	return r, true, nil
}

func (c *RedisCache) Set(ctx context.Context, r spotball.WinnerResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+r.CompetitionID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, competitionID string) error {
	if err := c.client.Del(ctx, redisKeyPrefix+competitionID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)
