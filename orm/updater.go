package orm

import (
	"slices"

	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/model"
)

// Updater 构造 UPDATE 语句
// UPDATE `tag` SET `Tag`=?,`Slug`=? WHERE `ID` = ?;
type Updater struct {
	model   *model.Model
	dialect Dialect
	table   string
	assigns []Assignment
	where   []Predicate
}

func NewUpdater(m *model.Model) *Updater {
	return &Updater{
		model:   m,
		dialect: MySQL,
	}
}

func (u *Updater) Dialect(d Dialect) *Updater {
	c := *u
	c.dialect = d
	return &c
}

func (u *Updater) Table(name string) *Updater {
	c := *u
	c.table = name
	return &c
}

func (u *Updater) Set(assigns ...Assignment) *Updater {
	c := *u
	c.assigns = append(slices.Clip(u.assigns), assigns...)
	return &c
}

func (u *Updater) Where(ps ...Predicate) *Updater {
	c := *u
	c.where = append(slices.Clip(u.where), ps...)
	return &c
}

func (u *Updater) Build() (*Query, error) {
	if len(u.assigns) == 0 {
		return nil, errs.ErrNoUpdatedColumns
	}
	table := u.table
	if table == "" && u.model != nil {
		table = u.model.TableName
	}
	if table == "" {
		return nil, errs.ErrEmptyTable
	}

	b := newBuilder(u.dialect, u.model)
	b.sb.WriteString("UPDATE ")
	b.quote(table)
	b.sb.WriteString(" SET ")
	for i, a := range u.assigns {
		if i > 0 {
			b.sb.WriteByte(',')
		}
		if err := u.buildAssignment(b, a); err != nil {
			return nil, err
		}
	}
	if len(u.where) > 0 {
		b.sb.WriteString(" WHERE ")
		if err := b.buildPredicates(u.where); err != nil {
			return nil, err
		}
	}
	return b.build(), nil
}

func (u *Updater) buildAssignment(b *builder, assign Assignment) error {
	if err := b.buildColumn(C(assign.column)); err != nil {
		return err
	}
	b.sb.WriteByte('=')
	return b.buildExpression(assign.val)
}
