package orm

import (
	"fmt"
	"strings"

	"github.com/coderi421/recordkit/orm/model"
)

var (
	MySQL   Dialect = &mysqlDialect{}
	SQLite3 Dialect = &sqlite3Dialect{}
)

// Dialect 方言，屏蔽不同数据库在语法上的差异
type Dialect interface {
	Name() string
	quoter() byte
	// calcFoundRows 是否支持 SQL_CALC_FOUND_ROWS
	calcFoundRows() bool
	// noLimit 只有 OFFSET 的时候 LIMIT 后面写的值
	noLimit() string
	columnType(f *model.Field) string
	createTable(t *tableDef) []string
}

// DialectOf infers the dialect from a database/sql driver name.
func DialectOf(driver string) (Dialect, bool) {
	switch driver {
	case "mysql":
		return MySQL, true
	case "sqlite3", "sqlite":
		return SQLite3, true
	}
	return nil, false
}

type standardSQL struct {
}

func (s *standardSQL) quoter() byte {
	return '`'
}

func (s *standardSQL) calcFoundRows() bool {
	return false
}

func (s *standardSQL) noLimit() string {
	return "-1"
}

// column renders `name` type [NOT NULL|NULL] [DEFAULT ...]
func (s *standardSQL) column(sb *strings.Builder, typ string, f *model.Field, autoInc string) {
	sb.WriteByte('`')
	sb.WriteString(f.ColumnName)
	sb.WriteString("` ")
	sb.WriteString(typ)
	if f.NotNull || f.Primary {
		sb.WriteString(" NOT NULL")
	} else {
		sb.WriteString(" NULL")
	}
	switch {
	case f.AutoIncrement:
		if autoInc != "" {
			sb.WriteByte(' ')
			sb.WriteString(autoInc)
		}
	case f.DefaultsToCurrentTimestamp():
		sb.WriteString(" DEFAULT CURRENT_TIMESTAMP")
	case f.HasDefault():
		sb.WriteString(" DEFAULT ")
		sb.WriteString(ddlLiteral(f.Default))
	case !f.NotNull:
		sb.WriteString(" DEFAULT NULL")
	}
}

func quoteColumns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = "`" + c + "`"
	}
	return strings.Join(quoted, ",")
}

// ddlLiteral 建表语句里的默认值，字符串用单引号
func ddlLiteral(val any) string {
	switch v := val.(type) {
	case bool:
		if v {
			return "1"
		}
		return "0"
	case string:
		return "'" + Escape(v) + "'"
	case []string:
		return "'" + Escape(strings.Join(v, model.DefaultDelimiter)) + "'"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v)
	default:
		return "'" + Escape(fmt.Sprint(v)) + "'"
	}
}

type mysqlDialect struct {
	standardSQL
}

func (m *mysqlDialect) Name() string {
	return "mysql"
}

func (m *mysqlDialect) calcFoundRows() bool {
	return true
}

func (m *mysqlDialect) noLimit() string {
	return "18446744073709551615"
}

func (m *mysqlDialect) columnType(f *model.Field) string {
	length := func(def int) int {
		if f.Length > 0 {
			return f.Length
		}
		return def
	}
	unsigned := ""
	if f.Unsigned || f.Type == model.KindUint {
		unsigned = " unsigned"
	}
	switch f.Type {
	case model.KindChar:
		return fmt.Sprintf("char(%d)", length(1))
	case model.KindClob:
		return "mediumtext"
	case model.KindInteger, model.KindInt, model.KindUint:
		if f.Length > 0 {
			return fmt.Sprintf("int(%d)%s", f.Length, unsigned)
		}
		return "int" + unsigned
	case model.KindFloat:
		return "double" + unsigned
	case model.KindDecimal:
		p, s := f.Precision, f.Scale
		if p == 0 {
			p, s = 10, 2
		}
		return fmt.Sprintf("decimal(%d,%d)%s", p, s, unsigned)
	case model.KindBoolean:
		return "tinyint(1)"
	case model.KindEnum, model.KindSet:
		vals := make([]string, len(f.Values))
		for i, v := range f.Values {
			vals[i] = "'" + Escape(v) + "'"
		}
		return fmt.Sprintf("%s(%s)", f.Type, strings.Join(vals, ","))
	case model.KindList, model.KindSerialized:
		return "mediumtext"
	case model.KindJSON:
		return "json"
	case model.KindDate:
		return "date"
	case model.KindTimestamp:
		return "timestamp"
	case model.KindBinary:
		return fmt.Sprintf("binary(%d)", length(16))
	case model.KindBlob:
		return "mediumblob"
	case model.KindUUID:
		return "char(36)"
	default:
		// string, varchar, password
		return fmt.Sprintf("varchar(%d)", length(255))
	}
}

func (m *mysqlDialect) createTable(t *tableDef) []string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS `")
	sb.WriteString(t.name)
	sb.WriteString("` (\n")
	for i, f := range t.fields {
		if i > 0 {
			sb.WriteString(",\n")
		}
		sb.WriteByte('\t')
		m.column(&sb, m.columnType(f), f, "auto_increment")
	}
	for _, idx := range t.indexes {
		sb.WriteString(",\n\t")
		switch idx.kind {
		case indexPrimary:
			sb.WriteString("PRIMARY KEY")
		case indexUnique:
			sb.WriteString("UNIQUE KEY `" + idx.name + "`")
		case indexFulltext:
			sb.WriteString("FULLTEXT KEY `" + idx.name + "`")
		default:
			sb.WriteString("KEY `" + idx.name + "`")
		}
		sb.WriteString(" (")
		sb.WriteString(quoteColumns(idx.columns))
		sb.WriteByte(')')
	}
	sb.WriteString("\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;")
	return []string{sb.String()}
}

type sqlite3Dialect struct {
	standardSQL
}

func (s *sqlite3Dialect) Name() string {
	return "sqlite3"
}

func (s *sqlite3Dialect) columnType(f *model.Field) string {
	switch f.Type {
	case model.KindInteger, model.KindInt, model.KindUint, model.KindBoolean:
		return "INTEGER"
	case model.KindFloat:
		return "REAL"
	case model.KindDecimal:
		return "NUMERIC"
	case model.KindBinary, model.KindBlob:
		return "BLOB"
	default:
		// 时间也存成文本，驱动不会再把它解析成 time.Time
		return "TEXT"
	}
}

func (s *sqlite3Dialect) createTable(t *tableDef) []string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS `")
	sb.WriteString(t.name)
	sb.WriteString("` (\n")
	for i, f := range t.fields {
		if i > 0 {
			sb.WriteString(",\n")
		}
		sb.WriteByte('\t')
		if f.AutoIncrement {
			// SQLite 只认 INTEGER PRIMARY KEY AUTOINCREMENT 这种写法
			sb.WriteString("`" + f.ColumnName + "` INTEGER PRIMARY KEY AUTOINCREMENT")
			continue
		}
		s.column(&sb, s.columnType(f), f, "")
	}
	var stmts []string
	for _, idx := range t.indexes {
		switch idx.kind {
		case indexPrimary:
			if t.autoIncrement {
				continue
			}
			sb.WriteString(",\n\tPRIMARY KEY (" + quoteColumns(idx.columns) + ")")
		case indexUnique:
			sb.WriteString(",\n\tUNIQUE (" + quoteColumns(idx.columns) + ")")
		default:
			// 普通索引和全文索引都建成普通索引，索引名在库里是全局的
			stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS `%s_%s` ON `%s` (%s);",
				t.name, idx.name, t.name, quoteColumns(idx.columns)))
		}
	}
	sb.WriteString("\n);")
	return append([]string{sb.String()}, stmts...)
}
