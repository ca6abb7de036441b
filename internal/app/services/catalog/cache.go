package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/paintcoffee/pos-backend/internal/app/domain/menu"
	"github.com/paintcoffee/pos-backend/pkg/logger"
)

const (
	menuCacheKey = "pos:menu:active"
	menuCacheTTL = 5 * time.Minute
)

// Cache is a Redis-backed cache for the active menu listing. Terminals poll
// the menu constantly while it changes rarely, so a short TTL plus explicit
// invalidation on writes keeps reads off the database. Cache failures degrade
// to store reads and are never surfaced to callers.
type Cache struct {
	client *redis.Client
	log    *logger.Logger
}

// NewCache wraps a Redis client for menu caching.
func NewCache(client *redis.Client, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.NewDefault("catalog-cache")
	}
	return &Cache{client: client, log: log}
}

// GetMenu returns the cached active menu, if present and decodable.
func (c *Cache) GetMenu(ctx context.Context) ([]menu.Item, bool) {
	data, err := c.client.Get(ctx, menuCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Debug("menu cache read failed")
		}
		return nil, false
	}

	var items []menu.Item
	if err := json.Unmarshal(data, &items); err != nil {
		c.log.WithError(err).Warn("discarding undecodable menu cache entry")
		return nil, false
	}
	return items, true
}

// SetMenu stores the active menu listing.
func (c *Cache) SetMenu(ctx context.Context, items []menu.Item) {
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, menuCacheKey, data, menuCacheTTL).Err(); err != nil {
		c.log.WithError(err).Debug("menu cache write failed")
	}
}

// InvalidateMenu drops the cached listing after a menu write.
func (c *Cache) InvalidateMenu(ctx context.Context) error {
	return c.client.Del(ctx, menuCacheKey).Err()
}
