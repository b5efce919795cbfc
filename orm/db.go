package orm

import (
	"database/sql"
	"log"
	"time"

	"github.com/coderi421/recordkit/orm/cache/lru"
	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/internal/valuer"
	"github.com/coderi421/recordkit/orm/model"
)

type DBOption func(*DB)

// DB 对 sql.DB 的封装，同时持有模型的元数据注册中心
type DB struct {
	db      *sql.DB
	dialect Dialect
	r       *model.Registry
	codec   valuer.Codec
	mdls    []Middleware

	cache   RecordCache
	noCache bool

	// autoCreate 为 true 的时候，所有模型的表不存在都会自动创建
	// 为 false 的时候只看模型自己的声明
	autoCreate bool
	logFunc    func(format string, args ...any)
	clock      func() time.Time
}

// Open 创建一个 DB 实例。
// 默认情况下，该 DB 使用从驱动名推断出来的方言，例如 mysql 对应 MySQL
func Open(driver string, dsn string, opts ...DBOption) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if d, ok := DialectOf(driver); ok {
		opts = append([]DBOption{DBWithDialect(d)}, opts...)
	}
	res, err := OpenDB(db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return res, nil
}

// OpenDB 可以利用 OpenDB 来传入一个 mock 的 DB，默认方言是 MySQL
func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	res := &DB{
		db:      db,
		dialect: MySQL,
		r:       model.NewRegistry(),
		logFunc: log.Printf,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(res)
	}
	if res.dialect == nil {
		return nil, errs.NewErrUnsupportedDriver("")
	}
	if res.cache == nil && !res.noCache {
		c, err := lru.New(lru.DefaultSize)
		if err != nil {
			return nil, err
		}
		res.cache = c
	}
	return res, nil
}

// MustOpen creates a new DB with the provided options.
// If the creation fails, it panics.
func MustOpen(driver string, dsn string, opts ...DBOption) *DB {
	db, err := Open(driver, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

func DBWithDialect(d Dialect) DBOption {
	return func(db *DB) {
		db.dialect = d
	}
}

// DBWithRegistry shares a registry between several DB instances.
func DBWithRegistry(r *model.Registry) DBOption {
	return func(db *DB) {
		db.r = r
	}
}

func DBWithMiddlewares(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = mdls
	}
}

func DBWithRecordCache(c RecordCache) DBOption {
	return func(db *DB) {
		db.cache = c
		db.noCache = c == nil
	}
}

func DBWithoutRecordCache() DBOption {
	return func(db *DB) {
		db.cache = nil
		db.noCache = true
	}
}

// DBWithAutoCreateTables creates missing tables of every model, not only
// of the models declared with AutoCreate.
func DBWithAutoCreateTables() DBOption {
	return func(db *DB) {
		db.autoCreate = true
	}
}

func DBWithLogFunc(fn func(format string, args ...any)) DBOption {
	return func(db *DB) {
		db.logFunc = fn
	}
}

func DBWithClock(clock func() time.Time) DBOption {
	return func(db *DB) {
		db.clock = clock
	}
}

// DBWithStrictValues makes Set reject malformed values instead of storing nil.
func DBWithStrictValues() DBOption {
	return func(db *DB) {
		db.codec.Mode = valuer.Strict
	}
}

// DBWithLocation sets the zone timestamps and dates are stored in.
func DBWithLocation(loc *time.Location) DBOption {
	return func(db *DB) {
		db.codec.Location = loc
	}
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) Registry() *model.Registry {
	return db.r
}

// Register registers declarations with the registry of db.
func (db *DB) Register(decls ...*model.Declaration) error {
	for _, d := range decls {
		if _, err := db.r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) now() time.Time {
	return db.clock()
}
