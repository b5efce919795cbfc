package orm

// Column 代表一个字段，name 是模型里的字段名，构造语句的时候转换成列名
// table 是表的别名，为空的时候使用主表
type Column struct {
	table string
	name  string
	alias string
}

func (c Column) expr() {}

func (c Column) selectable() {}

type value struct {
	val any
}

func (v value) expr() {}

// valueOf creates a new value object with the given value.
func valueOf(val any) value {
	return value{val: val}
}

func C(name string) Column {
	return Column{name: name}
}

// Of qualifies the column with a table alias: C("ID").Of("Link").
func (c Column) Of(table string) Column {
	c.table = table
	return c
}

// As 这里使用值作为接收者，每次都返回一个新的
func (c Column) As(alias string) Column {
	c.alias = alias
	return c
}

func (c Column) compare(o op, arg any) Predicate {
	return Predicate{
		left:  c,
		op:    o,
		right: exprOf(arg), // 如果 arg 不是 Expression 类型 就让他变成这个类型
	}
}

// EQ 例如 C("ID").EQ(12)
func (c Column) EQ(arg any) Predicate {
	return c.compare(opEQ, arg)
}

func (c Column) NEQ(arg any) Predicate {
	return c.compare(opNEQ, arg)
}

// LT 例如 C("ID").LT(12)
func (c Column) LT(arg any) Predicate {
	return c.compare(opLT, arg)
}

func (c Column) LTE(arg any) Predicate {
	return c.compare(opLTE, arg)
}

func (c Column) GT(arg any) Predicate {
	return c.compare(opGT, arg)
}

func (c Column) GTE(arg any) Predicate {
	return c.compare(opGTE, arg)
}

func (c Column) Like(pattern string) Predicate {
	return c.compare(opLike, pattern)
}

func (c Column) IsNull() Predicate {
	return Predicate{left: c, op: opIsNull}
}

func (c Column) IsNotNull() Predicate {
	return Predicate{left: c, op: opIsNotNull}
}
