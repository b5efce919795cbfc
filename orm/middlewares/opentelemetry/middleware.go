package opentelemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/coderi421/recordkit/orm"
)

const instrumentationName = "github.com/coderi421/recordkit/orm/middlewares/opentelemetry"

type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

func (m MiddlewareBuilder) Build() orm.Middleware {
	if m.Tracer == nil {
		m.Tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			table := qc.Table
			if table == "" {
				table = "unknown"
			}
			// span 名字：INSERT-tag
			spanCtx, span := m.Tracer.Start(ctx, fmt.Sprintf("%s-%s", qc.Type, table),
				trace.WithSpanKind(trace.SpanKindClient))
			defer span.End()

			span.SetAttributes(
				attribute.String("db.operation", qc.Type),
				attribute.String("db.table", table),
			)
			if qc.Model != nil {
				span.SetAttributes(attribute.String("db.class", qc.Model.Name))
			}
			if q, err := qc.Builder.Build(); err == nil {
				// 只记录带占位符的语句，参数里面可能有敏感数据
				span.SetAttributes(attribute.String("db.statement", q.SQL))
			}

			res := next(spanCtx, qc)
			if res.Err != nil {
				span.RecordError(res.Err)
				span.SetStatus(codes.Error, orm.KindOf(res.Err).String())
			}
			return res
		}
	}
}
