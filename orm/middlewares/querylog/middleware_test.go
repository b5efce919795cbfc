package querylog

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderi421/recordkit/internal/catalog"
	"github.com/coderi421/recordkit/orm"
)

func TestMiddlewareBuilder(t *testing.T) {
	var queries []string
	var args [][]any
	m := NewBuilder().LogFunc(func(q string, as []any) {
		queries = append(queries, q)
		args = append(args, as)
	})

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	db, err := orm.OpenDB(sqlDB,
		orm.DBWithDialect(orm.SQLite3),
		orm.DBWithAutoCreateTables(),
		orm.DBWithClock(func() time.Time {
			return time.Date(2024, 3, 5, 13, 4, 5, 0, time.UTC)
		}),
		orm.DBWithMiddlewares(m.Build()))
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()
	require.NoError(t, db.Register(catalog.All()...))

	ctx := context.Background()
	_, err = db.MustFinder("Tag").Create(ctx, map[string]any{"Tag": "Go", "Slug": "go"}, true)
	require.NoError(t, err)

	// 第一次插入表不存在，建表之后重试
	require.Len(t, queries, 3)
	assert.Equal(t, "INSERT INTO `tag` (`Class`,`Created`,`Tag`,`Slug`) VALUES (?,?,?,?);", queries[0])
	assert.True(t, strings.HasPrefix(queries[1], "CREATE TABLE IF NOT EXISTS `tag`"))
	assert.Nil(t, args[1])
	assert.Equal(t, queries[0], queries[2])
	assert.Equal(t, []any{"Tag", "2024-03-05 13:04:05", "Go", "go"}, args[2])

	_, err = db.MustFinder("Tag").GetByHandle(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `tag` WHERE `Slug` = ? LIMIT ?;", queries[3])
	assert.Equal(t, []any{"go", 1}, args[3])
}

func TestMiddlewareBuilder_BuildError(t *testing.T) {
	called := false
	next := func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
		called = true
		return &orm.QueryResult{}
	}
	logged := false
	h := NewBuilder().LogFunc(func(string, []any) { logged = true }).Build()(next)
	res := h(context.Background(), &orm.QueryContext{
		Type:    orm.TypeInsert,
		Builder: orm.NewInserter(nil),
	})
	assert.Error(t, res.Err)
	assert.False(t, called)
	assert.False(t, logged)
}
