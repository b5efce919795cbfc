package orm

import (
	"strings"
)

// Row 一行数据，列名到值
type Row = map[string]any

// Query 构造好的语句以及绑定的参数
type Query struct {
	SQL  string
	Args []any
}

// String renders the statement with every bound argument inlined as an
// escaped literal. It is meant for logs and tests; statements are always
// executed with bound parameters.
func (q *Query) String() string {
	return Interpolate(q.SQL, q.Args)
}

type QueryBuilder interface {
	Build() (*Query, error)
}

// Interpolate replaces each ? placeholder outside of quotes with the
// matching argument rendered as a literal.
func Interpolate(query string, args []any) string {
	if len(args) == 0 {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 16*len(args))
	var quote byte
	idx := 0
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case quote != 0:
			if ch == '\\' && i+1 < len(query) {
				sb.WriteByte(ch)
				i++
				ch = query[i]
			} else if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == '?' && idx < len(args):
			sb.WriteString(Literal(args[idx]))
			idx++
			continue
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}
