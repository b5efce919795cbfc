package orm

import (
	"database/sql"

	"github.com/coderi421/recordkit/orm/internal/valuer"
	"github.com/coderi421/recordkit/orm/model"
)

// Rows 只能向前的游标，每一行是列名到值的映射
// 值已经按照列对应的字段转换成存储格式
type Rows struct {
	rows    *sql.Rows
	codec   valuer.Codec
	columns map[string]*model.Field
}

func (r *Rows) Next() bool {
	return r.rows.Next()
}

// Row reads the current row.
func (r *Rows) Row() (Row, error) {
	row, err := valuer.ScanRow(r.rows)
	if err != nil {
		return nil, err
	}
	return r.codec.NormalizeRow(r.columns, row), nil
}

// Columns returns the column names in select order.
func (r *Rows) Columns() ([]string, error) {
	return r.rows.Columns()
}

func (r *Rows) Err() error {
	return r.rows.Err()
}

func (r *Rows) Close() error {
	return r.rows.Close()
}

// All reads the remaining rows and closes the cursor.
func (r *Rows) All() ([]Row, error) {
	rows, err := valuer.ScanAll(r.rows)
	if err != nil {
		return nil, err
	}
	res := make([]Row, 0, len(rows))
	for _, row := range rows {
		res = append(res, r.codec.NormalizeRow(r.columns, row))
	}
	return res, nil
}
