package valuer

import (
	"database/sql"

	"github.com/coderi421/recordkit/orm/model"
)

// Scanner is the part of *sql.Rows a row scan needs.
type Scanner interface {
	Columns() ([]string, error)
	Scan(dest ...any) error
}

// ScanRow 读取当前行，返回列名到值的映射
// 值保持驱动返回的样子，[]byte 已经被 database/sql 复制过，可以安全持有
func ScanRow(rows Scanner) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	// colValues 里面存的都是指针，Scan 之后指针指向的值就是列的值
	colValues := make([]any, len(cols))
	colEleValues := make([]any, len(cols))
	for i := range colValues {
		colValues[i] = &colEleValues[i]
	}
	if err = rows.Scan(colValues...); err != nil {
		return nil, err
	}
	res := make(map[string]any, len(cols))
	for i, col := range cols {
		res[col] = colEleValues[i]
	}
	return res, nil
}

// ScanAll reads every remaining row and closes rows.
func ScanAll(rows *sql.Rows) ([]map[string]any, error) {
	defer func() {
		_ = rows.Close()
	}()
	var res []map[string]any
	for rows.Next() {
		row, err := ScanRow(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// NormalizeRow converts a scanned row into raw storage values using the
// field each column maps to. Unmapped columns are kept as scanned, with
// []byte turned into string.
func (c Codec) NormalizeRow(columns map[string]*model.Field, row map[string]any) map[string]any {
	res := make(map[string]any, len(row))
	for col, val := range row {
		if f, ok := columns[col]; ok {
			res[col] = c.Normalize(f, val)
			continue
		}
		if b, ok := val.([]byte); ok {
			res[col] = string(b)
			continue
		}
		res[col] = val
	}
	return res
}
