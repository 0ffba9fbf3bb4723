package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"referral-bot/internal/store"
)

const DefaultKey = "referral-bot:leaderboard"

// Leaderboard caches leaderboard snapshots in one Redis hash, one field
// per requested size, so a single DEL drops every size at once.
type Leaderboard struct {
	Redis *redis.Client
	Key   string
	TTL   time.Duration
}

func NewLeaderboard(rdb *redis.Client, ttl time.Duration) *Leaderboard {
	return &Leaderboard{Redis: rdb, Key: DefaultKey, TTL: ttl}
}

// Get reports false on a cache miss.
func (c *Leaderboard) Get(ctx context.Context, limit int) ([]store.Entry, bool, error) {
	raw, err := c.Redis.HGet(ctx, c.Key, strconv.Itoa(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entries []store.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

func (c *Leaderboard) Set(ctx context.Context, limit int, entries []store.Entry) error {
	if c.TTL <= 0 {
		return nil
	}

	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	_, err = c.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, c.Key, strconv.Itoa(limit), b)
		pipe.Expire(ctx, c.Key, c.TTL)
		return nil
	})
	return err
}

func (c *Leaderboard) Invalidate(ctx context.Context) error {
	return c.Redis.Del(ctx, c.Key).Err()
}
