package orm

// RawQuerier 原生语句，不做任何处理，DDL 以及 Queryf 都走这里
type RawQuerier struct {
	sql  string
	args []any
}

func RawQuery(query string, args ...any) *RawQuerier {
	return &RawQuerier{
		sql:  query,
		args: args,
	}
}

func (r *RawQuerier) Build() (*Query, error) {
	return &Query{
		SQL:  r.sql,
		Args: r.args,
	}, nil
}
