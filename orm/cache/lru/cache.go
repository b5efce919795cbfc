package lru

import (
	"context"
	"maps"

	lru "github.com/hashicorp/golang-lru"

	"github.com/coderi421/recordkit/orm/internal/errs"
)

// DefaultSize is the number of rows the default record cache keeps.
const DefaultSize = 1024

// Cache 进程内的有界记录缓存，满了之后淘汰最久没用的
type Cache struct {
	c *lru.Cache
}

// New creates a cache holding at most size rows.
func New(size int) (*Cache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

func (c *Cache) Get(ctx context.Context, key string) (map[string]any, error) {
	val, ok := c.c.Get(key)
	if !ok {
		return nil, errs.ErrCacheMiss
	}
	// 返回副本，调用方修改不会影响缓存
	return maps.Clone(val.(map[string]any)), nil
}

func (c *Cache) Set(ctx context.Context, key string, row map[string]any) error {
	c.c.Add(key, maps.Clone(row))
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.c.Remove(key)
	return nil
}

// Len reports how many rows are cached.
func (c *Cache) Len() int {
	return c.c.Len()
}
