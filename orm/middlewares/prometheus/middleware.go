package prometheus

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/coderi421/recordkit/orm"
)

// MiddlewareBuilder 按语句类型和表统计耗时以及失败次数
type MiddlewareBuilder struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
	// Registerer 为空的时候注册到 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
}

func (m MiddlewareBuilder) Build() orm.Middleware {
	vector := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:      m.Name,
		Subsystem: m.Subsystem,
		Namespace: m.Namespace,
		Help:      m.Help,
		Objectives: map[float64]float64{
			0.5:   0.01,
			0.75:  0.01,
			0.90:  0.01,
			0.99:  0.001,  // 99 线
			0.999: 0.0001, // 999 线
		},
	}, []string{"type", "table"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      m.Name + "_errors",
		Subsystem: m.Subsystem,
		Namespace: m.Namespace,
		Help:      "Statements that failed, by error kind.",
	}, []string{"type", "table", "kind"})

	reg := m.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(vector, failures)

	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			table := qc.Table
			if table == "" {
				table = "unknown"
			}
			startTime := time.Now()
			defer func() {
				vector.WithLabelValues(qc.Type, table).
					Observe(float64(time.Since(startTime).Microseconds()))
			}()
			res := next(ctx, qc)
			if res.Err != nil {
				failures.WithLabelValues(qc.Type, table, orm.KindOf(res.Err).String()).Inc()
			}
			return res
		}
	}
}
