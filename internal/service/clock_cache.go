package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/manikandareas/masukptn-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// clockCache caches section start timestamps so clock reads avoid a
// database round trip per tick. The database row stays authoritative; a
// cache miss falls back to it and self-heals.
type clockCache interface {
	GetStart(ctx context.Context, attemptID uuid.UUID) (*time.Time, error)
	SetStart(ctx context.Context, attemptID uuid.UUID, startedAt time.Time, ttl time.Duration) error
	ClearStart(ctx context.Context, attemptID uuid.UUID) error
}

type redisClockCache struct {
	rdb *redis.Client
}

// NewClockCache creates the Redis-backed clock cache.
func NewClockCache(rdb *redis.Client) clockCache {
	return &redisClockCache{rdb: rdb}
}

func (c *redisClockCache) GetStart(ctx context.Context, attemptID uuid.UUID) (*time.Time, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.SectionStartKey(attemptID.String())).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read section start: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("parse section start: %w", err)
	}
	return &t, nil
}

func (c *redisClockCache) SetStart(ctx context.Context, attemptID uuid.UUID, startedAt time.Time, ttl time.Duration) error {
	return c.rdb.Set(ctx, config.CacheKey.SectionStartKey(attemptID.String()),
		startedAt.UTC().Format(time.RFC3339Nano), ttl).Err()
}

func (c *redisClockCache) ClearStart(ctx context.Context, attemptID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.SectionStartKey(attemptID.String())).Err()
}
