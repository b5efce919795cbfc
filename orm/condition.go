package orm

import (
	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/internal/valuer"
	"github.com/coderi421/recordkit/orm/model"
)

// compiler 把结构化的条件和排序编译成 Predicate 和 OrderBy
// 值会先按字段类型转换成存储格式，再作为参数绑定
type compiler struct {
	codec valuer.Codec
	model *model.Model
	// table 不为空的时候，列都加上这个别名
	table string
}

// CompileConditions compiles conds against the fields of m with lenient
// value coercion. A nil value, or a blank one for a blank-is-null field,
// compiles to IS NULL.
func CompileConditions(m *model.Model, conds model.Conditions) ([]Predicate, error) {
	return compiler{model: m}.conditions(conds)
}

// CompileOrder compiles orders against the fields of m.
func CompileOrder(m *model.Model, orders []model.Order) ([]OrderBy, error) {
	return compiler{model: m}.order(orders)
}

func (c compiler) column(name string) Column {
	col := C(name)
	if c.table != "" {
		col = col.Of(c.table)
	}
	return col
}

func (c compiler) conditions(conds model.Conditions) ([]Predicate, error) {
	res := make([]Predicate, 0, len(conds))
	for _, cond := range conds {
		p, err := c.condition(cond)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

func (c compiler) condition(cond model.Condition) (Predicate, error) {
	if cond.Raw != "" {
		return Raw(cond.Raw, cond.Args...).AsPredicate(), nil
	}
	var f *model.Field
	if c.model != nil {
		fd, ok := c.model.Field(cond.Field)
		if !ok {
			return Predicate{}, errs.NewErrUnknownField(cond.Field)
		}
		f = fd
	}
	o := opEQ
	if cond.Op != "" {
		var ok bool
		if o, ok = comparison(cond.Op); !ok {
			return Predicate{}, errs.NewErrUnsupportedExpressionType(cond.Op)
		}
	}

	val := cond.Value
	if f != nil && val != nil && o != opLike && o != opNotLike {
		v, err := c.codec.Encode(f, val)
		if err != nil {
			return Predicate{}, err
		}
		val = v
	}
	col := c.column(cond.Field)
	if val == nil {
		switch o {
		case opEQ:
			return col.IsNull(), nil
		case opNEQ:
			return col.IsNotNull(), nil
		}
	}
	return col.compare(o, val), nil
}

func (c compiler) order(orders []model.Order) ([]OrderBy, error) {
	res := make([]OrderBy, 0, len(orders))
	for _, o := range orders {
		if o.Raw != "" {
			res = append(res, RawOrderBy(o.Raw))
			continue
		}
		if c.model != nil && !c.model.HasField(o.Field) {
			return nil, errs.NewErrUnknownField(o.Field)
		}
		ob := ASC(o.Field)
		if o.Desc {
			ob = Desc(o.Field)
		}
		if c.table != "" {
			ob = ob.Of(c.table)
		}
		res = append(res, ob)
	}
	return res, nil
}

// BuildPredicates renders ps as a WHERE fragment, without the keyword.
func BuildPredicates(d Dialect, m *model.Model, ps ...Predicate) (*Query, error) {
	b := newBuilder(d, m)
	if err := b.buildPredicates(ps); err != nil {
		return nil, err
	}
	return &Query{SQL: b.sb.String(), Args: b.args}, nil
}
