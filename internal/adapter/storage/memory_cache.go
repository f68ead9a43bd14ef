package storage

import (
	"context"
	"sync"
	"time"
)

type cacheItem struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// MemoryCache is the in-process CacheRepository used outside production.
type MemoryCache struct {
	mu             sync.Mutex
	items          map[string]cacheItem
	idempotencyTTL time.Duration
	now            func() time.Time
}

func NewMemoryCache(idempotencyTTL time.Duration) *MemoryCache {
	if idempotencyTTL <= 0 {
		idempotencyTTL = defaultIdempotencyKeyTTL
	}
	return &MemoryCache{
		items:          make(map[string]cacheItem),
		idempotencyTTL: idempotencyTTL,
		now:            time.Now,
	}
}

func (c *MemoryCache) SetIdempotency(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := idempotencyKeyPrefix + key
	if item, ok := c.items[k]; ok && !item.expired(c.now()) {
		return false, nil
	}
	c.items[k] = cacheItem{value: []byte("1"), expiresAt: c.now().Add(c.idempotencyTTL)}
	return true, nil
}

func (c *MemoryCache) ClearIdempotency(ctx context.Context, key string) error {
	return c.Delete(ctx, idempotencyKeyPrefix+key)
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if item.expired(c.now()) {
		delete(c.items, key)
		return nil, false, nil
	}
	return append([]byte(nil), item.value...), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := cacheItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}
	c.items[key] = item
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}
