package cache

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache stores serialized values under string keys
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Key builds a stable cache key from its parts
func Key(prefix string, parts ...string) string {
	return fmt.Sprintf("%s:%x", prefix, md5.Sum([]byte(strings.Join(parts, "|"))))
}

type memoryItem struct {
	value      string
	expiration time.Time
}

// MemoryCache is an in-process cache with per-entry expiry
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !item.expiration.IsZero() && c.now().After(item.expiration) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return "", false
	}
	return item.value, true
}

// Set stores value. A zero ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiration = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}
