package lru

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderi421/recordkit/orm/internal/errs"
)

func TestCache(t *testing.T) {
	ctx := context.Background()
	c, err := New(2)
	require.NoError(t, err)

	_, err = c.Get(ctx, "tag/Slug/go")
	assert.Equal(t, errs.ErrCacheMiss, err)

	row := map[string]any{"ID": int64(1), "Slug": "go"}
	require.NoError(t, c.Set(ctx, "tag/Slug/go", row))
	got, err := c.Get(ctx, "tag/Slug/go")
	require.NoError(t, err)
	assert.Equal(t, row, got)

	// 修改拿到的副本不影响缓存
	got["Slug"] = "changed"
	row["Slug"] = "changed"
	got, err = c.Get(ctx, "tag/Slug/go")
	require.NoError(t, err)
	assert.Equal(t, "go", got["Slug"])

	require.NoError(t, c.Set(ctx, "tag/ID/1", row))
	require.NoError(t, c.Set(ctx, "tag/ID/2", row))
	assert.Equal(t, 2, c.Len())
	// 满了之后淘汰最久没用的
	_, err = c.Get(ctx, "tag/Slug/go")
	assert.Equal(t, errs.ErrCacheMiss, err)

	require.NoError(t, c.Delete(ctx, "tag/ID/2"))
	_, err = c.Get(ctx, "tag/ID/2")
	assert.Equal(t, errs.ErrCacheMiss, err)
	assert.Equal(t, 1, c.Len())
}

func TestNew(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)
}
