package orm

import (
	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/model"
)

type indexKind uint8

const (
	indexKey indexKind = iota
	indexPrimary
	indexUnique
	indexFulltext
)

type tableIndex struct {
	name    string
	columns []string
	kind    indexKind
}

// tableDef 建表需要的全部信息，方言只负责输出语法
type tableDef struct {
	name          string
	fields        []*model.Field
	indexes       []tableIndex
	autoIncrement bool
}

// CreateTableStatements returns the statements creating the table of m, or
// its history table when history is true. Fields of registered subclasses
// sharing the table are included.
func CreateTableStatements(d Dialect, r *model.Registry, m *model.Model, history bool) ([]string, error) {
	if history && !m.Versioned {
		return nil, errs.NewErrNotVersioned(m.Name)
	}
	var t *tableDef
	var err error
	if history {
		t, err = historyTableDef(r, m)
	} else {
		t, err = primaryTableDef(r, m)
	}
	if err != nil {
		return nil, err
	}
	return d.createTable(t), nil
}

func primaryTableDef(r *model.Registry, m *model.Model) (*tableDef, error) {
	t := &tableDef{
		name:   m.TableName,
		fields: r.TableFields(m),
	}
	var primary []string
	for _, f := range t.fields {
		if f.Primary {
			primary = append(primary, f.ColumnName)
		}
		if f.AutoIncrement {
			t.autoIncrement = true
		}
	}
	if len(primary) == 0 {
		return nil, errs.NewErrNoPrimaryKey(m.Name)
	}
	t.indexes = append(t.indexes, tableIndex{name: "PRIMARY", columns: primary, kind: indexPrimary})
	for _, f := range t.fields {
		switch {
		case f.Primary:
		case f.Unique:
			t.indexes = append(t.indexes, tableIndex{name: f.ColumnName, columns: []string{f.ColumnName}, kind: indexUnique})
		case f.Fulltext:
			t.indexes = append(t.indexes, tableIndex{name: f.ColumnName, columns: []string{f.ColumnName}, kind: indexFulltext})
		case f.Index:
			t.indexes = append(t.indexes, tableIndex{name: f.ColumnName, columns: []string{f.ColumnName}, kind: indexKey})
		}
	}
	cc, okc := m.Field(model.FieldContextClass)
	ci, oki := m.Field(model.FieldContextID)
	if okc && oki {
		t.indexes = append(t.indexes, tableIndex{
			name:    "Context",
			columns: []string{cc.ColumnName, ci.ColumnName},
		})
	}
	for _, idx := range m.Indexes {
		ti := tableIndex{name: idx.Name}
		for _, name := range idx.Fields {
			f, ok := m.Field(name)
			if !ok {
				return nil, errs.NewErrInvalidIndex(m.Name, idx.Name, "unknown field "+name)
			}
			ti.columns = append(ti.columns, f.ColumnName)
		}
		switch {
		case idx.Unique:
			ti.kind = indexUnique
		case idx.Fulltext:
			ti.kind = indexFulltext
		}
		t.indexes = append(t.indexes, ti)
	}
	return t, nil
}

// historyTableDef 历史表：RevisionID 是自增主键，其余字段都可以为空，
// 只在原来的主键上建普通索引，同一行的多个快照可以共存
func historyTableDef(r *model.Registry, m *model.Model) (*tableDef, error) {
	rev, ok := m.Field(model.FieldRevisionID)
	if !ok {
		return nil, errs.NewErrNotVersioned(m.Name)
	}
	pk, err := m.PrimaryField()
	if err != nil {
		return nil, err
	}
	revision := *rev
	revision.Primary = true
	revision.AutoIncrement = true
	revision.NotNull = true
	t := &tableDef{
		name:          m.HistoryTableName,
		fields:        []*model.Field{&revision},
		autoIncrement: true,
	}
	for _, f := range r.TableFields(m) {
		cp := *f
		cp.NotNull = false
		cp.Primary = false
		cp.AutoIncrement = false
		cp.Unique = false
		t.fields = append(t.fields, &cp)
	}
	t.indexes = []tableIndex{
		{name: "PRIMARY", columns: []string{revision.ColumnName}, kind: indexPrimary},
		{name: pk.ColumnName, columns: []string{pk.ColumnName}, kind: indexKey},
	}
	return t, nil
}
