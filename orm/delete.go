package orm

import (
	"slices"

	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/model"
)

// Deleter 构造 DELETE 语句
type Deleter struct {
	model   *model.Model
	dialect Dialect
	table   string
	where   []Predicate
}

func NewDeleter(m *model.Model) *Deleter {
	return &Deleter{
		model:   m,
		dialect: MySQL,
	}
}

func (d *Deleter) Dialect(dl Dialect) *Deleter {
	c := *d
	c.dialect = dl
	return &c
}

// From 指定表名，不指定的时候使用 model 的表名
func (d *Deleter) From(table string) *Deleter {
	c := *d
	c.table = table
	return &c
}

func (d *Deleter) Where(ps ...Predicate) *Deleter {
	c := *d
	c.where = append(slices.Clip(d.where), ps...)
	return &c
}

// Build generates a DELETE query based on the provided parameters.
func (d *Deleter) Build() (*Query, error) {
	table := d.table
	if table == "" && d.model != nil {
		table = d.model.TableName
	}
	if table == "" {
		return nil, errs.ErrEmptyTable
	}

	b := newBuilder(d.dialect, d.model)
	b.sb.WriteString("DELETE FROM ")
	b.quote(table)
	if len(d.where) > 0 {
		b.sb.WriteString(" WHERE ")
		if err := b.buildPredicates(d.where); err != nil {
			return nil, err
		}
	}
	return b.build(), nil
}
