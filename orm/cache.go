package orm

import (
	"context"
	"fmt"
)

// RecordCache 按唯一字段查找记录时用的缓存
// Get 没有命中的时候返回 ErrCacheMiss；缓存出错不会让查询失败，只会打日志
type RecordCache interface {
	Get(ctx context.Context, key string) (Row, error)
	Set(ctx context.Context, key string, row Row) error
	Delete(ctx context.Context, key string) error
}

// CacheKey is the key a row of table looked up by column = value is
// cached under.
func CacheKey(table, column string, value any) string {
	return fmt.Sprintf("%s/%s/%v", table, column, value)
}
