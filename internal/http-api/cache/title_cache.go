package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reviewhub/internal/http-api/models"

	"github.com/redis/go-redis/v9"
)

// TitleCache is a read-through cache for title payloads. A nil cache
// (or a cache built without redis) is a no-op, so callers never have to
// branch on whether redis is configured.
type TitleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTitleCache(redisURL, password string, ttl time.Duration) (*TitleCache, error) {
	if redisURL == "" {
		return &TitleCache{}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &TitleCache{client: rdb, ttl: ttl}, nil
}

func titleKey(id int64) string {
	return fmt.Sprintf("title:%d", id)
}

// Get returns the cached title, or nil on miss (or when disabled).
func (c *TitleCache) Get(ctx context.Context, id int64) (*models.Title, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, titleKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var t models.Title
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *TitleCache) Set(ctx context.Context, t *models.Title) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, titleKey(t.ID), raw, c.ttl).Err()
}

// Invalidate drops the cached payload. Called after any title write,
// including rating recomputes.
func (c *TitleCache) Invalidate(ctx context.Context, id int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, titleKey(id)).Err()
}
