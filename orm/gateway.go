package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/model"
)

// 语句类型，中间件通过 QueryContext.Type 拿到
const (
	TypeSelect = "SELECT"
	TypeInsert = "INSERT"
	TypeUpdate = "UPDATE"
	TypeDelete = "DELETE"
	TypeDDL    = "DDL"
	// TypeRaw 返回结果集的原生语句
	TypeRaw = "RAW"
	// TypeExec 不返回结果集的原生语句
	TypeExec = "EXEC"
)

// queryContext 根据构造器的类型填充中间件的上下文
func queryContext(qb QueryBuilder) *QueryContext {
	qc := &QueryContext{Builder: qb}
	switch b := qb.(type) {
	case *Selector:
		qc.Type, qc.Model, qc.Table = TypeSelect, b.model, b.tableName()
	case *countQuery:
		qc.Type, qc.Model, qc.Table = TypeSelect, b.s.model, b.s.tableName()
	case *Inserter:
		qc.Type, qc.Model, qc.Table = TypeInsert, b.model, b.table
		if qc.Table == "" && b.model != nil {
			qc.Table = b.model.TableName
		}
	case *Updater:
		qc.Type, qc.Model, qc.Table = TypeUpdate, b.model, b.table
		if qc.Table == "" && b.model != nil {
			qc.Table = b.model.TableName
		}
	case *Deleter:
		qc.Type, qc.Model, qc.Table = TypeDelete, b.model, b.table
		if qc.Table == "" && b.model != nil {
			qc.Table = b.model.TableName
		}
	default:
		qc.Type = TypeRaw
	}
	return qc
}

// countQuery 统计 Selector 忽略分页之后的总行数
type countQuery struct {
	s *Selector
}

func (c *countQuery) Build() (*Query, error) {
	return c.s.BuildCount()
}

// handler 组装中间件，最里面一层在 sess 上执行语句并且给错误归类
func (db *DB) handler(sess session) Handler {
	var root Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		q, err := qc.Builder.Build()
		if err != nil {
			return &QueryResult{Err: err}
		}
		switch qc.Type {
		case TypeSelect, TypeRaw:
			rows, err := sess.QueryContext(ctx, q.SQL, q.Args...)
			return &QueryResult{Result: rows, Err: classify(err, qc.Table)}
		default:
			res, err := sess.ExecContext(ctx, q.SQL, q.Args...)
			return &QueryResult{Result: res, Err: classify(err, qc.Table)}
		}
	}
	for i := len(db.mdls) - 1; i >= 0; i-- {
		root = db.mdls[i](root)
	}
	return root
}

// run 执行语句，表不存在并且允许自动建表的时候，建表之后重试一次
func (db *DB) run(ctx context.Context, sess session, qc *QueryContext) *QueryResult {
	h := db.handler(sess)
	res := h(ctx, qc)
	if res.Err != nil && db.createMissing(ctx, res.Err, qc) {
		res = h(ctx, qc)
	}
	return res
}

func (db *DB) createMissing(ctx context.Context, err error, qc *QueryContext) bool {
	var e *errs.Error
	if !errors.As(err, &e) || e.Kind != errs.KindSchemaMissing || qc.Type == TypeDDL {
		return false
	}
	table := e.Table
	if table == "" {
		table = qc.Table
	}
	m, ok := db.r.ByTable(table)
	if !ok {
		return false
	}
	if !db.autoCreate && !m.AutoCreate {
		return false
	}
	if err = db.CreateTables(ctx, m); err != nil {
		db.logFunc("orm: creating table %s failed: %v", table, err)
		return false
	}
	db.logFunc("orm: created table %s, retrying %s", table, qc.Type)
	return true
}

// CreateTables creates the table of m and, for versioned models, its
// history table.
func (db *DB) CreateTables(ctx context.Context, m *model.Model) error {
	stmts, err := CreateTableStatements(db.dialect, db.r, m, false)
	if err != nil {
		return err
	}
	if m.Versioned {
		hs, err := CreateTableStatements(db.dialect, db.r, m, true)
		if err != nil {
			return err
		}
		stmts = append(stmts, hs...)
	}
	h := db.handler(db.db)
	for _, stmt := range stmts {
		res := h(ctx, &QueryContext{
			Type:    TypeDDL,
			Builder: RawQuery(stmt),
			Model:   m,
			Table:   m.TableName,
		})
		if res.Err != nil {
			return res.Err
		}
	}
	return nil
}

func (db *DB) rows(res *QueryResult, qc *QueryContext) (*Rows, error) {
	if res.Err != nil {
		return nil, res.Err
	}
	rows, ok := res.Result.(*sql.Rows)
	if !ok {
		return nil, fmt.Errorf("orm: %s statement returned %T instead of rows", qc.Type, res.Result)
	}
	r := &Rows{rows: rows, codec: db.codec}
	if qc.Model != nil {
		r.columns = qc.Model.ColumnMap
	}
	return r, nil
}

func (db *DB) query(ctx context.Context, sess session, qb QueryBuilder) (*Rows, error) {
	qc := queryContext(qb)
	return db.rows(db.run(ctx, sess, qc), qc)
}

// Query 执行查询，返回游标，调用方负责关闭
func (db *DB) Query(ctx context.Context, qb QueryBuilder) (*Rows, error) {
	return db.query(ctx, db.db, qb)
}

// Exec executes a statement that returns no rows.
func (db *DB) Exec(ctx context.Context, qb QueryBuilder) Result {
	qc := queryContext(qb)
	if qc.Type == TypeRaw {
		qc.Type = TypeExec
	}
	res := db.run(ctx, db.db, qc)
	var sqlRes sql.Result
	if res.Result != nil {
		sqlRes, _ = res.Result.(sql.Result)
	}
	return Result{
		err:   res.Err,
		table: qc.Table,
		res:   sqlRes,
	}
}

// OneRecord returns the first row, or ErrNoRows.
func (db *DB) OneRecord(ctx context.Context, qb QueryBuilder) (Row, error) {
	rows, err := db.Query(ctx, qb)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, classify(err, "")
		}
		return nil, ErrNoRows
	}
	return rows.Row()
}

// AllRecords reads every row.
func (db *DB) AllRecords(ctx context.Context, qb QueryBuilder) ([]Row, error) {
	rows, err := db.Query(ctx, qb)
	if err != nil {
		return nil, err
	}
	return rows.All()
}

// OneValue returns the first column of the first row.
func (db *DB) OneValue(ctx context.Context, qb QueryBuilder) (any, error) {
	return db.oneValue(ctx, db.db, qb)
}

func (db *DB) oneValue(ctx context.Context, sess session, qb QueryBuilder) (any, error) {
	rows, err := db.query(ctx, sess, qb)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, classify(err, "")
		}
		return nil, ErrNoRows
	}
	row, err := rows.Row()
	if err != nil {
		return nil, err
	}
	return row[cols[0]], nil
}

// Table reads every row keyed by the value of indexColumn. Later rows
// win on duplicate keys.
func (db *DB) Table(ctx context.Context, qb QueryBuilder, indexColumn string) (map[string]Row, error) {
	rows, err := db.AllRecords(ctx, qb)
	if err != nil {
		return nil, err
	}
	res := make(map[string]Row, len(rows))
	for _, row := range rows {
		res[fmt.Sprint(row[indexColumn])] = row
	}
	return res, nil
}

// SelectFoundRows runs s and also reports how many rows it would return
// without LIMIT and OFFSET.
func (db *DB) SelectFoundRows(ctx context.Context, s *Selector) ([]Row, int64, error) {
	if !db.dialect.calcFoundRows() {
		rows, err := db.AllRecords(ctx, s)
		if err != nil {
			return nil, 0, err
		}
		n, err := db.OneValue(ctx, &countQuery{s: s})
		if err != nil {
			return nil, 0, err
		}
		return rows, toInt64(n), nil
	}

	// SQL_CALC_FOUND_ROWS 和 FOUND_ROWS() 必须在同一个连接上
	conn, err := db.db.Conn(ctx)
	if err != nil {
		return nil, 0, classify(err, "")
	}
	defer func() {
		_ = conn.Close()
	}()
	rs, err := db.query(ctx, conn, s.CalcFoundRows())
	if err != nil {
		return nil, 0, err
	}
	rows, err := rs.All()
	if err != nil {
		return nil, 0, err
	}
	n, err := db.oneValue(ctx, conn, RawQuery("SELECT FOUND_ROWS();"))
	if err != nil {
		return nil, 0, err
	}
	return rows, toInt64(n), nil
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		var n int64
		_, _ = fmt.Sscan(v, &n)
		return n
	}
	return 0
}

// Queryf formats the statement sprintf style. String arguments are
// escaped but not quoted, slices of strings are escaped and joined with
// ",". Prefer builders with bound parameters.
func (db *DB) Queryf(ctx context.Context, format string, args ...any) (*Rows, error) {
	return db.Query(ctx, RawQuery(Sprintf(format, args...)))
}

// Execf is Queryf for statements that return no rows.
func (db *DB) Execf(ctx context.Context, format string, args ...any) Result {
	return db.Exec(ctx, RawQuery(Sprintf(format, args...)))
}

// Sprintf escapes string arguments before formatting them into format.
func Sprintf(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			escaped[i] = Escape(v)
		case []string:
			escaped[i] = strings.Join(EscapeAll(v), `","`)
		default:
			escaped[i] = a
		}
	}
	return fmt.Sprintf(format, escaped...)
}

// Escape is the escaping primitive every interpolated literal goes through.
func (db *DB) Escape(s string) string {
	return Escape(s)
}
