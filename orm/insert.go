package orm

import (
	"slices"

	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/model"
)

// Inserter 构造单行的 INSERT 语句
// INSERT INTO `tag` (`Tag`,`Slug`) VALUES (?,?);
type Inserter struct {
	model   *model.Model
	dialect Dialect
	table   string
	assigns []Assignment
}

func NewInserter(m *model.Model) *Inserter {
	return &Inserter{
		model:   m,
		dialect: MySQL,
	}
}

func (i *Inserter) Dialect(d Dialect) *Inserter {
	c := *i
	c.dialect = d
	return &c
}

// Table 指定表名，历史表用这个
func (i *Inserter) Table(name string) *Inserter {
	c := *i
	c.table = name
	return &c
}

// Values 要插入的列，可以多次调用
func (i *Inserter) Values(assigns ...Assignment) *Inserter {
	c := *i
	c.assigns = append(slices.Clip(i.assigns), assigns...)
	return &c
}

func (i *Inserter) Build() (*Query, error) {
	if len(i.assigns) == 0 {
		return nil, errs.ErrInsertZeroRow
	}
	table := i.table
	if table == "" && i.model != nil {
		table = i.model.TableName
	}
	if table == "" {
		return nil, errs.ErrEmptyTable
	}

	b := newBuilder(i.dialect, i.model)
	b.sb.WriteString("INSERT INTO ")
	b.quote(table)
	b.sb.WriteString(" (")
	for idx, a := range i.assigns {
		if idx > 0 {
			b.sb.WriteByte(',')
		}
		if err := b.buildColumn(C(a.column)); err != nil {
			return nil, err
		}
	}

	b.sb.WriteString(") VALUES (")
	for idx, a := range i.assigns {
		if idx > 0 {
			b.sb.WriteByte(',')
		}
		if err := b.buildExpression(a.val); err != nil {
			return nil, err
		}
	}
	b.sb.WriteByte(')')
	return b.build(), nil
}
