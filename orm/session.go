package orm

import (
	"context"
	"database/sql"
)

var (
	_ session = &sql.DB{}
	_ session = &sql.Conn{}
)

// session 代表一个抽象的概念，即会话
// 平时直接用 *sql.DB；FOUND_ROWS 这种要求前后两条语句在同一个连接上执行的，
// 用固定下来的 *sql.Conn
type session interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
