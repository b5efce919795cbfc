package orm

import (
	"database/sql"

	"github.com/coderi421/recordkit/orm/internal/errs"
)

// Result 包装 sql.Result，语句执行失败的错误在取值的时候返回。
// 中间件可能不给结果，这个时候 LastInsertId 和 RowsAffected 返回 0
type Result struct {
	err   error
	table string
	res   sql.Result
}

// LastInsertId 重新 database sql 的 Result 方法 做一层拦截
func (r Result) LastInsertId() (int64, error) {
	if r.err != nil || r.res == nil {
		return 0, r.err
	}
	id, err := r.res.LastInsertId()
	return id, errs.Wrap(errs.KindDriver, r.table, err)
}

func (r Result) RowsAffected() (int64, error) {
	if r.err != nil || r.res == nil {
		return 0, r.err
	}
	n, err := r.res.RowsAffected()
	return n, errs.Wrap(errs.KindDriver, r.table, err)
}

// Err 执行语句本身的错误，已经分好类
func (r Result) Err() error {
	return r.err
}
