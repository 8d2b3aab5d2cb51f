package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/go-redis/redis/v8"
)

const leaderboardKey = "microtask:top-workers"

// RedisLeaderboardCache keeps the top-workers projection in Redis for a short TTL.
type RedisLeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLeaderboardCache(client *redis.Client, ttl time.Duration) *RedisLeaderboardCache {
	return &RedisLeaderboardCache{client: client, ttl: ttl}
}

// Get returns the cached leaderboard; any miss or Redis failure reports ok=false.
func (c *RedisLeaderboardCache) Get(ctx context.Context) ([]models.User, bool) {
	raw, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		return nil, false
	}
	var users []models.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, false
	}
	return users, true
}

func (c *RedisLeaderboardCache) Set(ctx context.Context, users []models.User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	return c.client.Set(ctx, leaderboardKey, raw, c.ttl).Err()
}

func (c *RedisLeaderboardCache) Invalidate(ctx context.Context) error {
	err := c.client.Del(ctx, leaderboardKey).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
