package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/coderi421/recordkit/internal/catalog"
	"github.com/coderi421/recordkit/orm"
	"github.com/coderi421/recordkit/orm/cache/lru"
	"github.com/coderi421/recordkit/orm/cache/memory"
	rediscache "github.com/coderi421/recordkit/orm/cache/redis"
	"github.com/coderi421/recordkit/orm/middlewares/opentelemetry"
	prom "github.com/coderi421/recordkit/orm/middlewares/prometheus"
	"github.com/coderi421/recordkit/orm/middlewares/querylog"
	"github.com/coderi421/recordkit/orm/middlewares/recover"
)

// app 一次命令执行用到的配置、数据库和输出
type app struct {
	cfg     *config
	db      *orm.DB
	ui      *printer
	closers []func(ctx context.Context) error
}

// open 按配置打开数据库，并注册 catalog 里的全部模型
func (a *app) open(ctx context.Context) error {
	opts, err := a.dbOptions(ctx)
	if err != nil {
		return err
	}
	db, err := orm.Open(a.cfg.Driver, a.cfg.DSN, opts...)
	if err != nil {
		return fmt.Errorf("open %s: %w", a.cfg.Driver, err)
	}
	a.closers = append(a.closers, func(ctx context.Context) error {
		return db.Close()
	})
	if err = db.Register(catalog.All()...); err != nil {
		return err
	}
	a.db = db
	return nil
}

func (a *app) dbOptions(ctx context.Context) ([]orm.DBOption, error) {
	opts := []orm.DBOption{orm.DBWithLogFunc(a.ui.debugf)}
	if a.cfg.AutoCreate {
		opts = append(opts, orm.DBWithAutoCreateTables())
	}
	if a.cfg.Strict {
		opts = append(opts, orm.DBWithStrictValues())
	}

	cacheOpt, err := a.recordCache()
	if err != nil {
		return nil, err
	}
	opts = append(opts, cacheOpt)

	// recover 放在最外层
	mdls := []orm.Middleware{recover.MiddlewareBuilder{
		LogFunc: func(ctx context.Context, qc *orm.QueryContext, err any) {
			a.ui.warnf("panic while running %s on %s: %v", qc.Type, qc.Table, err)
		},
	}.Build()}
	if a.cfg.Tracing != tracingNone {
		tp, err := newTracerProvider(ctx, a.cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, tp.Shutdown)
		mdls = append(mdls, opentelemetry.MiddlewareBuilder{Tracer: tp.Tracer(instrumentationName)}.Build())
	}
	if a.cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		mdls = append(mdls, prom.MiddlewareBuilder{
			Namespace:  "recordkit",
			Name:       "statement_duration_microseconds",
			Help:       "Statement latency by type and table.",
			Registerer: reg,
		}.Build())
		a.serveMetrics(reg)
	}
	if a.cfg.Verbose {
		mdls = append(mdls, querylog.NewBuilder().LogFunc(func(query string, args []any) {
			a.ui.debugf("sql: %s args: %v", query, args)
		}).Build())
	}
	return append(opts, orm.DBWithMiddlewares(mdls...)), nil
}

func (a *app) recordCache() (orm.DBOption, error) {
	switch a.cfg.Cache {
	case cacheNone:
		return orm.DBWithoutRecordCache(), nil
	case cacheMemory:
		return orm.DBWithRecordCache(memory.NewCache(a.cfg.CacheTTL)), nil
	case cacheRedis:
		client := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
		a.closers = append(a.closers, func(ctx context.Context) error {
			return client.Close()
		})
		return orm.DBWithRecordCache(rediscache.NewCache(client,
			rediscache.WithPrefix("recordkit"),
			rediscache.WithExpiration(a.cfg.CacheTTL))), nil
	default:
		c, err := lru.New(a.cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		return orm.DBWithRecordCache(c), nil
	}
}

// serveMetrics 在命令执行期间暴露 /metrics
func (a *app) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.ui.warnf("metrics server: %v", err)
		}
	}()
	a.closers = append(a.closers, srv.Shutdown)
}

// close 逆序释放资源
func (a *app) close(ctx context.Context) error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, a.closers[i](ctx))
	}
	a.closers = nil
	return err
}

func (a *app) finder(class string) (*orm.Finder, error) {
	f, err := a.db.Finder(class)
	if err == nil {
		return f, nil
	}
	if candidates := suggest(class, a.db.Registry().Classes()); len(candidates) > 0 {
		return nil, fmt.Errorf("%w, did you mean %s?", err, quoteAll(candidates))
	}
	return nil, err
}
