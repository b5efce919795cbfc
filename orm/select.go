package orm

import (
	"slices"

	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/model"
)

// Selectable 暂时没什么作用只是用作标记，可检索指定字段的标记
// 让结构体实现这个接口，就可以传入
// 使用接口为的是：让 聚合函数， columns， 以及 RawExpr（原生sql） 都能作为参数传入统一个函数，做统一处理
type Selectable interface {
	selectable()
}

// Selector 构造 SELECT 语句
// 所有的方法都返回一个新的 Selector，已经构造好的 Selector 可以放心地共享
type Selector struct {
	model   *model.Model
	dialect Dialect

	table   string // table 为空的时候使用 model.TableName
	alias   string
	columns []Selectable
	joins   []join
	where   []Predicate
	groupBy []Column
	having  []Predicate
	orderBy []OrderBy
	offset  int
	limit   int

	calcFoundRows bool
}

type join struct {
	table string
	model *model.Model
	alias string
	on    []Predicate
}

// NewSelector creates a selector over the table of m. m may be nil for
// statements that only use raw expressions.
func NewSelector(m *model.Model) *Selector {
	return &Selector{
		model:   m,
		dialect: MySQL,
	}
}

func (s *Selector) Dialect(d Dialect) *Selector {
	c := *s
	c.dialect = d
	return &c
}

// Table 指定表名，例如查历史表
func (s *Selector) Table(name string) *Selector {
	c := *s
	c.table = name
	return &c
}

func (s *Selector) Alias(alias string) *Selector {
	c := *s
	c.alias = alias
	return &c
}

// Select 检索指定 column，不调用的时候是 *
func (s *Selector) Select(cols ...Selectable) *Selector {
	c := *s
	c.columns = cols
	return &c
}

// Join 关联另外一张表，m 用来把 alias 下的字段名转换成列名
func (s *Selector) Join(m *model.Model, alias string, on ...Predicate) *Selector {
	c := *s
	c.joins = append(slices.Clip(s.joins), join{table: m.TableName, model: m, alias: alias, on: on})
	return &c
}

// Where 用于构造 WHERE 查询条件。多次调用的条件用 AND 连接
func (s *Selector) Where(ps ...Predicate) *Selector {
	c := *s
	c.where = append(slices.Clip(s.where), ps...)
	return &c
}

func (s *Selector) GroupBy(cols ...Column) *Selector {
	c := *s
	c.groupBy = cols
	return &c
}

func (s *Selector) Having(ps ...Predicate) *Selector {
	c := *s
	c.having = append(slices.Clip(s.having), ps...)
	return &c
}

func (s *Selector) OrderBy(orderBys ...OrderBy) *Selector {
	c := *s
	c.orderBy = append(slices.Clip(s.orderBy), orderBys...)
	return &c
}

func (s *Selector) Offset(offset int) *Selector {
	c := *s
	c.offset = offset
	return &c
}

func (s *Selector) Limit(limit int) *Selector {
	c := *s
	c.limit = limit
	return &c
}

// CalcFoundRows 让数据库记录忽略 LIMIT 之后的总行数
// 只有支持 SQL_CALC_FOUND_ROWS 的方言才会输出
func (s *Selector) CalcFoundRows() *Selector {
	c := *s
	c.calcFoundRows = true
	return &c
}

func (s *Selector) tableName() string {
	if s.table != "" {
		return s.table
	}
	if s.model != nil {
		return s.model.TableName
	}
	return ""
}

// Build generates the SELECT statement.
func (s *Selector) Build() (*Query, error) {
	b := newBuilder(s.dialect, s.model)
	if err := s.build(b, true); err != nil {
		return nil, err
	}
	return b.build(), nil
}

// BuildCount 生成统计总行数的语句：忽略 ORDER BY、LIMIT、OFFSET
// SELECT COUNT(*) FROM (...) AS `found`;
func (s *Selector) BuildCount() (*Query, error) {
	inner := *s
	inner.orderBy = nil
	inner.limit = 0
	inner.offset = 0
	inner.calcFoundRows = false

	b := newBuilder(s.dialect, s.model)
	b.sb.WriteString("SELECT COUNT(*) FROM (")
	if err := inner.build(b, false); err != nil {
		return nil, err
	}
	b.sb.WriteString(") AS ")
	b.quote("found")
	return b.build(), nil
}

func (s *Selector) build(b *builder, paging bool) error {
	table := s.tableName()
	if table == "" {
		return errs.ErrEmptyTable
	}
	if s.alias != "" {
		b.alias(s.alias, s.model)
	}
	for _, j := range s.joins {
		b.alias(j.alias, j.model)
	}

	b.sb.WriteString("SELECT ")
	if paging && s.calcFoundRows && b.dialect.calcFoundRows() {
		b.sb.WriteString("SQL_CALC_FOUND_ROWS ")
	}
	if err := s.buildColumns(b); err != nil {
		return err
	}
	b.sb.WriteString(" FROM ")
	b.quote(table)
	if s.alias != "" {
		b.sb.WriteString(" AS ")
		b.quote(s.alias)
	}

	for _, j := range s.joins {
		b.sb.WriteString(" JOIN ")
		b.quote(j.table)
		b.sb.WriteString(" AS ")
		b.quote(j.alias)
		if len(j.on) > 0 {
			b.sb.WriteString(" ON ")
			if err := b.buildPredicates(j.on); err != nil {
				return err
			}
		}
	}

	// 类似这种可有可无的部分，都要在前面加一个空格
	if len(s.where) > 0 {
		b.sb.WriteString(" WHERE ")
		if err := b.buildPredicates(s.where); err != nil {
			return err
		}
	}

	// 分组
	if len(s.groupBy) > 0 {
		b.sb.WriteString(" GROUP BY ")
		for i, c := range s.groupBy {
			if i > 0 {
				b.sb.WriteByte(',')
			}
			if err := b.buildColumn(c); err != nil {
				return err
			}
		}
	}

	// 筛选
	if len(s.having) > 0 {
		b.sb.WriteString(" HAVING ")
		if err := b.buildPredicates(s.having); err != nil {
			return err
		}
	}

	if !paging {
		return nil
	}

	// 排序
	if len(s.orderBy) > 0 {
		b.sb.WriteString(" ORDER BY ")
		if err := s.buildOrderBy(b); err != nil {
			return err
		}
	}

	// 分页
	if s.limit > 0 {
		b.sb.WriteString(" LIMIT ?")
		b.addArgs(s.limit)
	} else if s.offset > 0 {
		// 没有 LIMIT 不能单独写 OFFSET
		b.sb.WriteString(" LIMIT ")
		b.sb.WriteString(b.dialect.noLimit())
	}
	if s.offset > 0 {
		b.sb.WriteString(" OFFSET ?")
		b.addArgs(s.offset)
	}
	return nil
}

func (s *Selector) buildColumns(b *builder) error {
	if len(s.columns) == 0 {
		b.sb.WriteByte('*')
		return nil
	}

	for i, c := range s.columns {
		if i > 0 {
			b.sb.WriteByte(',')
		}

		switch val := c.(type) {
		case Column:
			if err := b.buildColumn(val); err != nil {
				return err
			}
			b.buildAs(val.alias)
		case Aggregate:
			if err := b.buildAggregate(val, true); err != nil {
				return err
			}
		case RawExpr:
			b.sb.WriteString(val.raw)
			if len(val.args) != 0 {
				b.addArgs(val.args...)
			}
		case AllOf:
			b.quote(string(val))
			b.sb.WriteString(".*")
		default:
			return errs.NewErrUnsupportedSelectable(c)
		}
	}
	return nil
}

func (s *Selector) buildOrderBy(b *builder) error {
	for i, ob := range s.orderBy {
		if i > 0 {
			b.sb.WriteByte(',')
		}
		if ob.raw != "" {
			b.sb.WriteString(ob.raw)
			continue
		}
		if err := b.buildColumn(ob.col); err != nil {
			return err
		}
		b.sb.WriteByte(' ')
		b.sb.WriteString(ob.order)
	}
	return nil
}

type OrderBy struct {
	col   Column
	order string
	// raw 原样输出
	raw string
}

func ASC(col string) OrderBy {
	return OrderBy{
		col:   C(col),
		order: "ASC",
	}
}

func Desc(col string) OrderBy {
	return OrderBy{
		col:   C(col),
		order: "DESC",
	}
}

// RawOrderBy is written to the ORDER BY clause verbatim.
func RawOrderBy(sql string) OrderBy {
	return OrderBy{raw: sql}
}

// Of qualifies the ordered column with a table alias.
func (o OrderBy) Of(table string) OrderBy {
	o.col = o.col.Of(table)
	return o
}
