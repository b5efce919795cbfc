package orm

import (
	"context"

	"github.com/coderi421/recordkit/orm/model"
)

// QueryContext 中间件的上下文，冗余了 Builder model 等，是因为还没有执行 sql 前，有的中间件，需要使用这些信息
type QueryContext struct {
	// Type 声明查询类型。即 SELECT, UPDATE, DELETE, INSERT, DDL 和 RAW
	Type string

	// builder 使用的时候，大多数情况下你需要转换到具体的类型
	// 才能篡改查询
	Builder QueryBuilder
	// Model 可能为空，例如 Queryf 发出的原生语句
	Model *model.Model
	// Table 语句作用的表，历史表的语句这里是历史表名
	Table string
}

type QueryResult struct {
	// Result 在不同的查询里面，类型是不同的
	// 查询是 *sql.Rows，其它情况下是 sql.Result
	Result any
	Err    error
}

type Middleware func(next Handler) Handler

type Handler func(ctx context.Context, qc *QueryContext) *QueryResult
