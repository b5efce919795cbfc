package orm

import (
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"

	"github.com/coderi421/recordkit/orm/internal/errs"
)

// mysql 的错误码
const (
	mysqlErrNoSuchTable     = 1146
	mysqlErrBadNull         = 1048
	mysqlErrDupEntry        = 1062
	mysqlErrRowIsReferenced = 1451
	mysqlErrNoReferencedRow = 1452
)

const (
	sqliteNoSuchTable = "no such table"
	// 扩展错误码的低 8 位是基础错误码
	sqlitePrimaryMask = 0xff
	sqliteConstraint  = 19 // SQLITE_CONSTRAINT
)

var (
	sqliteMissingTable = regexp.MustCompile(`no such table: (\S+)`)
	mysqlMissingTable  = regexp.MustCompile(`Table '(?:[^.']+\.)?([^']+)' doesn't exist`)
)

// classify 把驱动的错误归类，只在执行语句的地方调用一次
// table 是驱动没有告诉我们表名的时候用的
func classify(err error, table string) error {
	if err == nil {
		return nil
	}
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.KindNotFound, table, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlErrNoSuchTable:
			return errs.Wrap(errs.KindSchemaMissing, missingTable(mysqlMissingTable, myErr.Message, table), err)
		case mysqlErrDupEntry, mysqlErrRowIsReferenced, mysqlErrNoReferencedRow, mysqlErrBadNull:
			return errs.Wrap(errs.KindConstraintViolation, table, err)
		}
		return errs.Wrap(errs.KindDriver, table, err)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code == sqlite3.ErrConstraint {
			return errs.Wrap(errs.KindConstraintViolation, table, err)
		}
		return sqliteMessage(err, table)
	}

	var pureErr *sqlite.Error
	if errors.As(err, &pureErr) {
		if pureErr.Code()&sqlitePrimaryMask == sqliteConstraint {
			return errs.Wrap(errs.KindConstraintViolation, table, err)
		}
		return sqliteMessage(err, table)
	}

	// 其它驱动只能看错误信息
	return sqliteMessage(err, table)
}

func sqliteMessage(err error, table string) error {
	msg := err.Error()
	if strings.Contains(msg, sqliteNoSuchTable) {
		return errs.Wrap(errs.KindSchemaMissing, missingTable(sqliteMissingTable, msg, table), err)
	}
	return errs.Wrap(errs.KindDriver, table, err)
}

func missingTable(re *regexp.Regexp, msg, fallback string) string {
	m := re.FindStringSubmatch(msg)
	if m == nil {
		return fallback
	}
	name := strings.Trim(m[1], "`\"'")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
