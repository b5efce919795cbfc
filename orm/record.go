package orm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/model"
)

var _ model.Record = &Record{}

// Record 一行数据
// raw 里面是按列名存的存储格式的值，读字段的时候再按字段类型转换
type Record struct {
	db    *DB
	model *model.Model

	raw map[string]any
	// converted 转换之后的值，字段被修改的时候清掉
	converted map[string]any
	// original 记录被修改过的字段修改之前的值
	original map[string]any

	// related 已经解析过的关联对象：*Record、[]*Record 或者 nil
	related map[string]any
	// assigned 通过 SetRelated 赋值的关联，深度保存的时候一起保存
	assigned map[string]bool

	phantom    bool
	wasPhantom bool
	dirty      bool
	isNew      bool
	updated    bool
	valid      bool
	// history 从历史表读出来的记录，只读
	history bool
	// versionDirty 这一次保存之前是脏的，写完主表之后要写历史表
	versionDirty bool
	// saving 深度保存的时候防止循环
	saving bool

	validationErrors map[string]any
}

// newRecord wraps row. A nil row makes a phantom record.
func newRecord(db *DB, m *model.Model, row Row) *Record {
	r := &Record{
		db:        db,
		model:     m,
		converted: map[string]any{},
		original:  map[string]any{},
		related:   map[string]any{},
		assigned:  map[string]bool{},
	}
	if row == nil {
		r.raw = map[string]any{}
		r.phantom = true
		r.wasPhantom = true
		r.dirty = true
		if f, ok := m.Field(model.FieldClass); ok {
			r.raw[f.ColumnName] = m.Name
		}
		return r
	}
	r.raw = maps.Clone(row)
	return r
}

// load 根据 Class 列决定这一行加载成哪个类
func (db *DB) load(m *model.Model, row Row) (*Record, error) {
	if f, ok := m.Field(model.FieldClass); ok {
		class, _ := row[f.ColumnName].(string)
		target, err := db.r.Discriminate(m, class)
		if err != nil {
			return nil, err
		}
		m = target
	}
	return newRecord(db, m, row), nil
}

func (r *Record) Model() *model.Model {
	return r.model
}

// Get reads a field by its logical name.
func (r *Record) Get(name string) (any, error) {
	f, ok := r.model.Field(name)
	if !ok {
		return nil, errs.NewErrUnknownField(name)
	}
	if v, ok := r.converted[name]; ok {
		return v, nil
	}
	v := r.db.codec.Decode(f, r.raw[f.ColumnName])
	r.converted[name] = v
	return v, nil
}

// MustGet is Get for field names known to exist.
func (r *Record) MustGet(name string) any {
	v, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Set assigns a field by its logical name. The value goes through the
// codec of the field; assigning the stored value again changes nothing.
func (r *Record) Set(name string, val any) error {
	if r.history {
		return errs.NewErrReadOnlyRecord(r.model.Name)
	}
	f, ok := r.model.Field(name)
	if !ok {
		return errs.NewErrUnknownField(name)
	}
	if f.HistoryOnly {
		return errs.NewErrImmutableField(name)
	}
	raw, err := r.db.codec.Encode(f, val)
	if err != nil {
		return err
	}
	if sameRaw(r.raw[f.ColumnName], raw) {
		return nil
	}
	if name == r.model.PrimaryKey && !r.phantom {
		return errs.NewErrImmutableField(name)
	}
	r.setRaw(f, raw)
	return nil
}

// setRaw 跳过 codec 直接修改存储值，同时维护脏标记以及关联缓存
func (r *Record) setRaw(f *model.Field, raw any) {
	if _, ok := r.original[f.Name]; !ok {
		r.original[f.Name] = r.raw[f.ColumnName]
	}
	r.raw[f.ColumnName] = raw
	delete(r.converted, f.Name)
	r.dirty = true
	r.evict(f.Name)
}

// evict 依赖 field 的关联缓存失效
func (r *Record) evict(field string) {
	for _, name := range r.model.DependentRelationships(field) {
		delete(r.related, name)
		delete(r.assigned, name)
	}
}

func sameRaw(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ab, aok := a.([]byte)
	bb, bok := b.([]byte)
	switch {
	case aok && bok:
		return bytes.Equal(ab, bb)
	case aok:
		s, ok := b.(string)
		return ok && string(ab) == s
	case bok:
		s, ok := a.(string)
		return ok && string(bb) == s
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// SetFields assigns several fields, in declaration order. Unknown names
// fail before anything is assigned.
func (r *Record) SetFields(values map[string]any) error {
	for name := range values {
		if !r.model.HasField(name) {
			return errs.NewErrUnknownField(name)
		}
	}
	for _, f := range r.model.Fields {
		val, ok := values[f.Name]
		if !ok {
			continue
		}
		if err := r.Set(f.Name, val); err != nil {
			return err
		}
	}
	return nil
}

// ID returns the primary key value, nil for phantom records.
func (r *Record) ID() any {
	v, _ := r.Get(r.model.PrimaryKey)
	return v
}

func (r *Record) primaryRaw() (*model.Field, any) {
	f := r.model.FieldMap[r.model.PrimaryKey]
	return f, r.raw[f.ColumnName]
}

// Original returns the value field had before it was first changed since
// the last save.
func (r *Record) Original(name string) (any, bool) {
	raw, ok := r.original[name]
	if !ok {
		return nil, false
	}
	return r.db.codec.Decode(r.model.FieldMap[name], raw), true
}

// Changed lists the fields changed since the last save.
func (r *Record) Changed() []string {
	var res []string
	for _, f := range r.model.Fields {
		if _, ok := r.original[f.Name]; ok {
			res = append(res, f.Name)
		}
	}
	return res
}

func (r *Record) IsPhantom() bool {
	return r.phantom
}

func (r *Record) WasPhantom() bool {
	return r.wasPhantom
}

func (r *Record) IsDirty() bool {
	return r.dirty
}

func (r *Record) IsNew() bool {
	return r.isNew
}

func (r *Record) IsUpdated() bool {
	return r.updated
}

func (r *Record) IsValid() bool {
	return r.valid
}

// IsHistory reports whether the record is a read only history snapshot.
func (r *Record) IsHistory() bool {
	return r.history
}

func (r *Record) ValidationErrors() map[string]any {
	return r.validationErrors
}

// Raw returns a copy of the stored values keyed by column.
func (r *Record) Raw() Row {
	return maps.Clone(r.raw)
}

// Data flattens the record into field name to value, plus an "Errors"
// entry after a failed validation.
func (r *Record) Data() map[string]any {
	res := make(map[string]any, len(r.model.Fields)+1)
	for _, f := range r.model.Fields {
		if f.HistoryOnly && !r.history {
			continue
		}
		res[f.Name], _ = r.Get(f.Name)
	}
	if len(r.validationErrors) > 0 {
		res["Errors"] = r.validationErrors
	}
	return res
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Data())
}

func (r *Record) String() string {
	return fmt.Sprintf("%s(%v)", r.model.Name, r.ID())
}
