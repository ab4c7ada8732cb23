// Package redis caches resolved short codes in Redis.
//
// The cache is best effort: any Redis failure is logged and reported to the
// caller as a miss, so the store stays the source of truth.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vadimbarashkov/shortcode/internal/entity"
)

const (
	keyPrefix      = "shortcode:url:"
	connectTimeout = 5 * time.Second
)

// Connect parses a redis:// URL and verifies the server answers PING.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	const op = "adapter.cache.redis.Connect"

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid redis url: %w", op, err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
	}

	return client, nil
}

// Only immutable fields are cached. Click counts are always read from the store.
type cachedURL struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New returns a cache whose entries expire after ttl. A zero ttl keeps entries forever.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func key(shortCode string) string {
	return keyPrefix + shortCode
}

func (c *Cache) Get(ctx context.Context, shortCode string) (*entity.URL, bool) {
	const op = "adapter.cache.redis.Cache.Get"

	b, err := c.client.Get(ctx, key(shortCode)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed", slog.String("op", op), slog.Any("err", err))
		}
		return nil, false
	}

	var v cachedURL
	if err := json.Unmarshal(b, &v); err != nil {
		c.logger.Warn("cache entry is corrupted", slog.String("op", op), slog.String("short_code", shortCode), slog.Any("err", err))
		return nil, false
	}

	return &entity.URL{
		ID:          v.ID,
		ShortCode:   v.ShortCode,
		OriginalURL: v.OriginalURL,
		CreatedAt:   v.CreatedAt,
	}, true
}

func (c *Cache) Set(ctx context.Context, url *entity.URL) {
	const op = "adapter.cache.redis.Cache.Set"

	b, err := json.Marshal(cachedURL{
		ID:          url.ID,
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		CreatedAt:   url.CreatedAt,
	})
	if err != nil {
		c.logger.Warn("failed to encode cache entry", slog.String("op", op), slog.Any("err", err))
		return
	}

	if err := c.client.Set(ctx, key(url.ShortCode), b, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", slog.String("op", op), slog.Any("err", err))
	}
}
