package memory

import (
	"context"
	"maps"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/coderi421/recordkit/orm/internal/errs"
)

// Cache 带过期时间的记录缓存
type Cache struct {
	c *cache.Cache
	// 利用一个内存缓存来帮助我们管理过期时间
	expiration time.Duration
}

// NewCache creates a cache whose rows expire after expiration.
func NewCache(expiration time.Duration) *Cache {
	return &Cache{
		c:          cache.New(expiration, time.Second),
		expiration: expiration,
	}
}

func (c *Cache) Get(ctx context.Context, key string) (map[string]any, error) {
	val, ok := c.c.Get(key)
	if !ok {
		return nil, errs.ErrCacheMiss
	}
	return maps.Clone(val.(map[string]any)), nil
}

func (c *Cache) Set(ctx context.Context, key string, row map[string]any) error {
	c.c.Set(key, maps.Clone(row), c.expiration)
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.c.Delete(key)
	return nil
}
