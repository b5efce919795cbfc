package orm

import (
	"strings"

	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/model"
)

// builder 每次 Build 都新建一个，语句构造对象本身不会被修改
type builder struct {
	sb      strings.Builder // sb is used to build the SQL query string.
	args    []any           // args holds the arguments for the query.
	dialect Dialect
	quoter  byte
	// model 主表的元数据，为空的时候字段名直接当作列名
	model *model.Model
	// aliases 表别名到元数据的映射，JOIN 的时候用
	aliases map[string]*model.Model
}

func newBuilder(d Dialect, m *model.Model) *builder {
	if d == nil {
		d = MySQL
	}
	return &builder{
		dialect: d,
		quoter:  d.quoter(),
		model:   m,
	}
}

func (b *builder) quote(name string) {
	b.sb.WriteByte(b.quoter)
	b.sb.WriteString(name)
	b.sb.WriteByte(b.quoter)
}

func (b *builder) alias(name string, m *model.Model) {
	if b.aliases == nil {
		b.aliases = make(map[string]*model.Model, 2)
	}
	b.aliases[name] = m
}

// columnName maps a field name of the model behind table to its column.
// Names that are already column names are accepted as they are.
func (b *builder) columnName(table, name string) (string, error) {
	m := b.model
	if table != "" {
		if am, ok := b.aliases[table]; ok {
			m = am
		}
	}
	if m == nil {
		return name, nil
	}
	if fd, ok := m.FieldMap[name]; ok {
		return fd.ColumnName, nil
	}
	if _, ok := m.ColumnMap[name]; ok {
		return name, nil
	}
	return "", errs.NewErrUnknownField(name)
}

func (b *builder) buildColumn(c Column) error {
	col, err := b.columnName(c.table, c.name)
	if err != nil {
		return err
	}
	if c.table != "" {
		b.quote(c.table)
		b.sb.WriteByte('.')
	}
	b.quote(col)
	return nil
}

func (b *builder) buildAs(alias string) {
	if alias != "" {
		b.sb.WriteString(" AS ")
		b.quote(alias)
	}
}

func (b *builder) buildAggregate(a Aggregate, useAlias bool) error {
	b.sb.WriteString(a.fn)
	b.sb.WriteByte('(')
	if a.arg == "" || a.arg == "*" {
		b.sb.WriteByte('*')
	} else if err := b.buildColumn(C(a.arg)); err != nil {
		return err
	}
	b.sb.WriteByte(')')
	if useAlias {
		b.buildAs(a.alias)
	}
	return nil
}

// buildPredicates 多个条件用 AND 连接，每个条件单独加括号
func (b *builder) buildPredicates(ps []Predicate) error {
	if len(ps) == 1 {
		return b.buildExpression(ps[0])
	}
	for i, p := range ps {
		if i > 0 {
			b.sb.WriteString(" AND ")
		}
		b.sb.WriteByte('(')
		if err := b.buildExpression(p); err != nil {
			return err
		}
		b.sb.WriteByte(')')
	}
	return nil
}

// buildExpression builds the SQL for e recursively. Values become
// placeholders except nil, which is rendered as NULL.
func (b *builder) buildExpression(e Expression) error {
	if e == nil {
		return nil
	}

	switch expr := e.(type) {
	case Column:
		return b.buildColumn(expr)
	case Aggregate:
		return b.buildAggregate(expr, false)
	case value:
		if expr.val == nil {
			b.sb.WriteString("NULL")
			return nil
		}
		b.sb.WriteByte('?')
		b.addArgs(expr.val)
	case RawExpr:
		b.sb.WriteString(expr.raw)
		if len(expr.args) != 0 {
			b.addArgs(expr.args...)
		}
	case Predicate:
		if expr.left == nil {
			// NOT 这种前缀运算符
			b.sb.WriteString(expr.op.String())
			b.sb.WriteByte(' ')
			return b.buildSubExpression(expr.right)
		}
		if err := b.buildSubExpression(expr.left); err != nil {
			return err
		}
		if expr.op == "" {
			// 如果只有左边，例如原生 sql 的时候，就只有左边
			return nil
		}
		b.sb.WriteByte(' ')
		b.sb.WriteString(expr.op.String())
		if expr.right == nil {
			return nil
		}
		b.sb.WriteByte(' ')
		return b.buildSubExpression(expr.right)
	default:
		return errs.NewErrUnsupportedExpressionType(expr)
	}
	return nil
}

// buildSubExpression 如果是复杂结构，则在最外边套一层括号
func (b *builder) buildSubExpression(e Expression) error {
	_, ok := e.(Predicate)
	if ok {
		b.sb.WriteByte('(')
	}
	if err := b.buildExpression(e); err != nil {
		return err
	}
	if ok {
		b.sb.WriteByte(')')
	}
	return nil
}

func (b *builder) addArgs(args ...any) {
	if b.args == nil {
		b.args = make([]any, 0, 8)
	}
	b.args = append(b.args, args...)
}

func (b *builder) build() *Query {
	b.sb.WriteByte(';')
	return &Query{
		SQL:  b.sb.String(),
		Args: b.args,
	}
}
