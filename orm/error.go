package orm

import "github.com/coderi421/recordkit/orm/internal/errs"

// 将内部的 sentinel error 暴露出去
var (
	// ErrNoRows 代表没有找到数据
	ErrNoRows = errs.ErrNoRows
	// ErrSchemaMissing 表不存在，并且没有开启自动建表或者建表之后还是失败
	ErrSchemaMissing = errs.ErrSchemaMissing
	ErrConstraint    = errs.ErrConstraint
	ErrConfiguration = errs.ErrConfiguration
	// ErrValidation 校验失败，errors.As 到 *InvalidRecordError 可以拿到每个字段的错误
	ErrValidation = errs.ErrValidation
	ErrDriver     = errs.ErrDriver
	ErrCacheMiss  = errs.ErrCacheMiss
)

type (
	// Error 带分类的错误
	Error              = errs.Error
	ErrorKind          = errs.Kind
	InvalidRecordError = errs.InvalidRecordError
)

const (
	KindDriver              = errs.KindDriver
	KindValidationFailed    = errs.KindValidationFailed
	KindSchemaMissing       = errs.KindSchemaMissing
	KindConstraintViolation = errs.KindConstraintViolation
	KindNotFound            = errs.KindNotFound
	KindConfiguration       = errs.KindConfiguration
)

// KindOf reports the error kind of err; unclassified errors are driver errors.
func KindOf(err error) ErrorKind {
	return errs.KindOf(err)
}
