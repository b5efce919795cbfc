package orm

import (
	"context"
	"errors"

	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/model"
)

type findOptions struct {
	order  []model.Order
	limit  int
	offset int
	found  *int64
}

// FindOption configures the multi record lookups of a Finder.
type FindOption func(o *findOptions)

func Order(orders ...model.Order) FindOption {
	return func(o *findOptions) {
		o.order = append(o.order, orders...)
	}
}

func Limit(n int) FindOption {
	return func(o *findOptions) {
		o.limit = n
	}
}

func Offset(n int) FindOption {
	return func(o *findOptions) {
		o.offset = n
	}
}

// FoundRows stores in n how many rows match ignoring Limit and Offset.
func FoundRows(n *int64) FindOption {
	return func(o *findOptions) {
		o.found = n
	}
}

// Finder 按模型类查找和创建记录
type Finder struct {
	db    *DB
	model *model.Model
}

// Finder returns the finder of a registered class.
func (db *DB) Finder(class string) (*Finder, error) {
	m, err := db.r.Get(class)
	if err != nil {
		return nil, err
	}
	return &Finder{db: db, model: m}, nil
}

// MustFinder is Finder that panics on unknown classes.
func (db *DB) MustFinder(class string) *Finder {
	f, err := db.Finder(class)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Finder) Model() *model.Model {
	return f.model
}

// New 创建一个还没有保存的记录
func (f *Finder) New() *Record {
	return newRecord(f.db, f.model, nil)
}

// Create builds a record from values and saves it when autosave is set.
func (f *Finder) Create(ctx context.Context, values map[string]any, autosave bool) (*Record, error) {
	r := f.New()
	if err := r.SetFields(values); err != nil {
		return nil, err
	}
	if autosave {
		if err := r.Save(ctx); err != nil {
			return r, err
		}
	}
	return r, nil
}

func (f *Finder) GetByID(ctx context.Context, id any) (*Record, error) {
	return f.GetByField(ctx, f.model.PrimaryKey, id)
}

func (f *Finder) GetByHandle(ctx context.Context, handle string) (*Record, error) {
	if f.model.HandleField == "" {
		return nil, errs.NewErrUnknownField("handle of " + f.model.Name)
	}
	return f.GetByField(ctx, f.model.HandleField, handle)
}

// GetByField 查找一条记录，按唯一字段查找的时候走记录缓存
func (f *Finder) GetByField(ctx context.Context, field string, val any) (*Record, error) {
	fd, ok := f.model.Field(field)
	if !ok {
		return nil, errs.NewErrUnknownField(field)
	}
	if !fd.Unique && !fd.Primary || f.db.cache == nil {
		return f.GetByWhere(ctx, model.Conditions{model.Eq(field, val)})
	}
	raw, err := f.db.codec.Encode(fd, val)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNoRows
	}
	key := CacheKey(f.model.TableName, fd.ColumnName, raw)
	row, err := f.db.cache.Get(ctx, key)
	if err == nil {
		r, err := f.db.load(f.model, f.db.codec.NormalizeRow(f.model.ColumnMap, row))
		if err != nil {
			return nil, err
		}
		if !r.model.IsA(f.model.Name) {
			return nil, ErrNoRows
		}
		return r, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		f.db.logFunc("orm: record cache get failed: %v", err)
	}
	r, err := f.GetByWhere(ctx, model.Conditions{model.Eq(field, val)})
	if err != nil {
		return nil, err
	}
	if err = f.db.cache.Set(ctx, key, r.raw); err != nil {
		f.db.logFunc("orm: record cache set failed: %v", err)
	}
	return r, nil
}

// GetByWhere returns the first record matching conds.
func (f *Finder) GetByWhere(ctx context.Context, conds model.Conditions, opts ...FindOption) (*Record, error) {
	s, err := f.selector(conds, append(opts, Limit(1))...)
	if err != nil {
		return nil, err
	}
	row, err := f.db.OneRecord(ctx, s)
	if err != nil {
		return nil, err
	}
	return f.db.load(f.model, row)
}

func (f *Finder) GetAllByField(ctx context.Context, field string, val any, opts ...FindOption) ([]*Record, error) {
	return f.GetAllByWhere(ctx, model.Conditions{model.Eq(field, val)}, opts...)
}

func (f *Finder) GetAll(ctx context.Context, opts ...FindOption) ([]*Record, error) {
	return f.GetAllByWhere(ctx, nil, opts...)
}

// GetAllByWhere returns every record matching conds. An empty result is
// not an error.
func (f *Finder) GetAllByWhere(ctx context.Context, conds model.Conditions, opts ...FindOption) ([]*Record, error) {
	var o findOptions
	for _, opt := range opts {
		opt(&o)
	}
	s, err := f.selector(conds, opts...)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if o.found != nil {
		rows, *o.found, err = f.db.SelectFoundRows(ctx, s)
	} else {
		rows, err = f.db.AllRecords(ctx, s)
	}
	if err != nil {
		return nil, err
	}
	return f.db.loadAll(f.model, rows)
}

// Count counts the records matching conds.
func (f *Finder) Count(ctx context.Context, conds model.Conditions) (int64, error) {
	s, err := f.selector(conds)
	if err != nil {
		return 0, err
	}
	n, err := f.db.OneValue(ctx, s.Select(Count("")))
	if err != nil {
		return 0, err
	}
	return toInt64(n), nil
}

// GetRevisions returns the history snapshots of the record with id, newest
// first.
func (f *Finder) GetRevisions(ctx context.Context, id any) ([]*Record, error) {
	if !f.model.Versioned {
		return nil, errs.NewErrNotVersioned(f.model.Name)
	}
	s, err := f.historySelector(id, nil)
	if err != nil {
		return nil, err
	}
	rows, err := f.db.AllRecords(ctx, s)
	if err != nil {
		return nil, err
	}
	return f.db.loadHistory(f.model, rows), nil
}

func (f *Finder) historySelector(id any, orders []model.Order) (*Selector, error) {
	c := compiler{codec: f.db.codec, model: f.model}
	if len(orders) == 0 {
		orders = []model.Order{model.Desc(model.FieldRevisionID)}
	}
	obs, err := c.order(orders)
	if err != nil {
		return nil, err
	}
	pk, err := c.conditions(model.Conditions{model.Eq(f.model.PrimaryKey, id)})
	if err != nil {
		return nil, err
	}
	return NewSelector(f.model).Dialect(f.db.dialect).
		Table(f.model.HistoryTableName).
		Where(pk...).
		OrderBy(obs...), nil
}

// selector 子类只查自己的行
func (f *Finder) selector(conds model.Conditions, opts ...FindOption) (*Selector, error) {
	var o findOptions
	for _, opt := range opts {
		opt(&o)
	}
	c := compiler{codec: f.db.codec, model: f.model}
	ps, err := c.conditions(conds)
	if err != nil {
		return nil, err
	}
	if f.model.Name != f.model.RootClass && f.model.HasField(model.FieldClass) {
		ps = append(ps, C(model.FieldClass).EQ(f.model.Name))
	}
	obs, err := c.order(o.order)
	if err != nil {
		return nil, err
	}
	s := NewSelector(f.model).Dialect(f.db.dialect).
		Where(ps...).
		OrderBy(obs...).
		Limit(o.limit).
		Offset(o.offset)
	return s, nil
}

func (db *DB) loadAll(m *model.Model, rows []Row) ([]*Record, error) {
	res := make([]*Record, 0, len(rows))
	for _, row := range rows {
		r, err := db.load(m, row)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, nil
}

func (db *DB) loadHistory(m *model.Model, rows []Row) []*Record {
	res := make([]*Record, 0, len(rows))
	for _, row := range rows {
		r := newRecord(db, m, row)
		r.history = true
		res = append(res, r)
	}
	return res
}
