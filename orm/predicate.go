package orm

import "strings"

type op string

const (
	opEQ        op = "="
	opNEQ       op = "!="
	opLT        op = "<"
	opLTE       op = "<="
	opGT        op = ">"
	opGTE       op = ">="
	opLike      op = "LIKE"
	opNotLike   op = "NOT LIKE"
	opAND       op = "AND"
	opOR        op = "OR"
	opNOT       op = "NOT"
	opIsNull    op = "IS NULL"
	opIsNotNull op = "IS NOT NULL"
)

func (o op) String() string {
	return string(o)
}

// comparisons 条件里允许出现的比较运算符
var comparisons = map[string]op{
	"=":        opEQ,
	"==":       opEQ,
	"!=":       opNEQ,
	"<>":       opNEQ,
	"<":        opLT,
	"<=":       opLTE,
	">":        opGT,
	">=":       opGTE,
	"LIKE":     opLike,
	"NOT LIKE": opNotLike,
}

func comparison(s string) (op, bool) {
	o, ok := comparisons[strings.ToUpper(strings.TrimSpace(s))]
	return o, ok
}

// Expression 代表语句，或者语句的部分
// 暂时没想好怎么设计方法，所以直接做成标记接口
type Expression interface {
	expr()
}

// exprOf returns an Expression based on the input parameter.
func exprOf(e any) Expression {
	switch expr := e.(type) {
	case Expression:
		return expr
	default:
		return valueOf(expr)
	}
}

// Predicate 代表一个查询条件
// Predicate 可以通过和 Predicate 组合构成复杂的查询条件
// right 为空的时候 op 是后缀运算符，例如 IS NULL
type Predicate struct {
	left  Expression
	op    op
	right Expression
}

func (Predicate) expr() {}

func Not(p Predicate) Predicate {
	return Predicate{
		op:    opNOT,
		right: p,
	}
}

func (p Predicate) And(r Predicate) Predicate {
	return Predicate{
		left:  p,
		op:    opAND,
		right: r,
	}
}

func (p Predicate) Or(r Predicate) Predicate {
	return Predicate{
		left:  p,
		op:    opOR,
		right: r,
	}
}
