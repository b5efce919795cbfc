package querylog

import (
	"context"
	"log"

	"github.com/coderi421/recordkit/orm"
)

// MiddlewareBuilder 打印每一条发给数据库的语句，包括自动建表的 DDL
type MiddlewareBuilder struct {
	logFunc func(query string, args []any)
}

func NewBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{}
}

// LogFunc 默认用 log.Printf 输出
func (m *MiddlewareBuilder) LogFunc(fn func(query string, args []any)) *MiddlewareBuilder {
	m.logFunc = fn
	return m
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	logFunc := m.logFunc
	if logFunc == nil {
		logFunc = func(query string, args []any) {
			log.Printf("sql: %s, args: %v", query, args)
		}
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			q, err := qc.Builder.Build()
			if err != nil {
				// 构造失败的语句不会发出去
				return &orm.QueryResult{Err: err}
			}
			logFunc(q.SQL, q.Args)
			return next(ctx, qc)
		}
	}
}
