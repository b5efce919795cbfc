package recover

import (
	"context"
	"fmt"

	"github.com/coderi421/recordkit/orm"
)

// MiddlewareBuilder 把驱动或者后面的中间件里面的 panic 变成一个错误
type MiddlewareBuilder struct {
	LogFunc func(ctx context.Context, qc *orm.QueryContext, err any)
}

func (m MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) (res *orm.QueryResult) {
			defer func() {
				if err := recover(); err != nil {
					res = &orm.QueryResult{
						Err: &orm.Error{
							Kind:  orm.KindDriver,
							Table: qc.Table,
							Err:   fmt.Errorf("orm: panic while running %s: %v", qc.Type, err),
						},
					}
					// 万一 LogFunc 也panic，那我们也无能为力了
					if m.LogFunc != nil {
						m.LogFunc(ctx, qc, err)
					}
				}
			}()
			return next(ctx, qc)
		}
	}
}
