package model

import (
	"sort"
	"strings"
)

// Condition 结构化的查询条件
// Raw 不为空的时候，Raw 是可信的 SQL 片段，原样拼接，Args 按顺序绑定
type Condition struct {
	Field string
	// Op defaults to "=".
	Op    string
	Value any

	Raw  string
	Args []any
}

// Conditions are joined with AND.
type Conditions []Condition

// Eq 例如 Eq("Slug", "linux")，nil 值会编译成 IS NULL
func Eq(field string, val any) Condition {
	return Condition{Field: field, Value: val}
}

// Cond compares field with an explicit operator: Cond("Created", ">", ts).
func Cond(field, op string, val any) Condition {
	return Condition{Field: field, Op: op, Value: val}
}

// RawCond 原生的查询条件，不会做任何转义
func RawCond(sql string, args ...any) Condition {
	return Condition{Raw: sql, Args: args}
}

// Match turns a field to value mapping into equality conditions, ordered
// by field name so that the generated SQL is stable.
func Match(values map[string]any) Conditions {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	res := make(Conditions, 0, len(names))
	for _, name := range names {
		res = append(res, Eq(name, values[name]))
	}
	return res
}

// Order 排序
type Order struct {
	Field string
	Desc  bool
	// Raw is used verbatim when not empty.
	Raw string
}

func Asc(field string) Order {
	return Order{Field: field}
}

func Desc(field string) Order {
	return Order{Field: field, Desc: true}
}

func RawOrder(sql string) Order {
	return Order{Raw: sql}
}

// OrderList orders by every field ascending, in the given order.
func OrderList(fields ...string) []Order {
	res := make([]Order, 0, len(fields))
	for _, f := range fields {
		res = append(res, Asc(f))
	}
	return res
}

// OrderMap builds an order from field to direction pairs, sorted by field
// name. Any direction other than "DESC" (in any case) sorts ascending.
func OrderMap(dirs map[string]string) []Order {
	names := make([]string, 0, len(dirs))
	for name := range dirs {
		names = append(names, name)
	}
	sort.Strings(names)
	res := make([]Order, 0, len(names))
	for _, name := range names {
		res = append(res, Order{Field: name, Desc: strings.EqualFold(dirs[name], "DESC")})
	}
	return res
}
