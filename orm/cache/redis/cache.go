package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/coderi421/recordkit/orm/internal/errs"
)

// CacheOption is a function type for configuring a Cache.
type CacheOption func(c *Cache)

// Cache 多个进程共享的记录缓存，行用 JSON 存
type Cache struct {
	prefix     string // redis 中 key 的前缀
	client     redis.Cmdable
	expiration time.Duration // 过期时间
}

func NewCache(client redis.Cmdable, opts ...CacheOption) *Cache {
	res := &Cache{
		client:     client,
		prefix:     "record",
		expiration: time.Minute * 15,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

func WithPrefix(prefix string) CacheOption {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

func WithExpiration(expiration time.Duration) CacheOption {
	return func(c *Cache) {
		c.expiration = expiration
	}
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%s_%s", c.prefix, key)
}

// Get 数字用 json.Number 读出来，交给 codec 按字段类型还原
func (c *Cache) Get(ctx context.Context, key string) (map[string]any, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errs.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var row map[string]any
	if err = dec.Decode(&row); err != nil {
		return nil, err
	}
	return row, nil
}

func (c *Cache) Set(ctx context.Context, key string, row map[string]any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, c.expiration).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.key(key)).Err()
}
