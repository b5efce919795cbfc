package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind 错误分类，所有对外暴露的错误最终都会归到其中一类
type Kind uint8

const (
	KindDriver Kind = iota
	KindValidationFailed
	KindSchemaMissing
	KindConstraintViolation
	KindNotFound
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindValidationFailed:
		return "validation failed"
	case KindSchemaMissing:
		return "schema missing"
	case KindConstraintViolation:
		return "constraint violation"
	case KindNotFound:
		return "not found"
	case KindConfiguration:
		return "configuration error"
	default:
		return "driver error"
	}
}

// Error carries a Kind next to the underlying cause.
// Two *Error values match under errors.Is when the target has no cause
// and the kinds are equal, so the package sentinels work as kind tests.
type Error struct {
	Kind Kind
	// Table is filled for schema and constraint errors when the driver tells us.
	Table string
	Err   error
	msg   string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.msg != "" {
		return e.msg
	}
	return "orm: " + e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Err == nil && t.Kind == e.Kind
}

func sentinel(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

var (
	// ErrNoRows 代表没有找到数据
	ErrNoRows = sentinel(KindNotFound, "orm: no rows in result set")
	// ErrSchemaMissing 表或者列不存在
	ErrSchemaMissing = sentinel(KindSchemaMissing, "orm: table does not exist")
	// ErrConstraint 违反唯一索引、非空等约束
	ErrConstraint = sentinel(KindConstraintViolation, "orm: constraint violation")
	// ErrConfiguration 模型或者关联关系声明有误
	ErrConfiguration = sentinel(KindConfiguration, "orm: configuration error")
	// ErrValidation 校验失败
	ErrValidation = sentinel(KindValidationFailed, "orm: validation failed")
	// ErrDriver 其余的驱动错误
	ErrDriver = sentinel(KindDriver, "orm: driver error")

	ErrInsertZeroRow    = errors.New("orm: insert zero row")
	ErrNoUpdatedColumns = errors.New("orm: no updated columns")
	ErrEmptyTable       = errors.New("orm: statement has no target table")
	ErrCacheMiss        = errors.New("orm: cache miss")
)

// KindOf reports the kind of err. Errors that were never classified are
// driver errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDriver
}

// Wrap tags err with kind. A nil err stays nil.
func Wrap(kind Kind, table string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Table: table, Err: err}
}

func configuration(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Err: fmt.Errorf(format, args...)}
}

func NewErrUnknownField(name string) error {
	return configuration("orm: unknown field %s", name)
}

func NewErrUnknownClass(name string) error {
	return configuration("orm: unknown model class %q", name)
}

func NewErrAbstractClass(name string) error {
	return configuration("orm: model class %q is abstract", name)
}

func NewErrDuplicateClass(name string) error {
	return configuration("orm: model class %q declared twice with different declarations", name)
}

func NewErrUnknownRelationship(class, name string) error {
	return configuration("orm: %s has no relationship %s", class, name)
}

func NewErrInvalidFieldType(field, typ string) error {
	return configuration("orm: field %s declared with unknown type %q", field, typ)
}

func NewErrInvalidRelationship(class, name, reason string) error {
	return configuration("orm: relationship %s.%s: %s", class, name, reason)
}

func NewErrInvalidIndex(class, name, reason string) error {
	return configuration("orm: index %s.%s: %s", class, name, reason)
}

func NewErrDisallowedClass(class string, allowed []string) error {
	return configuration("orm: class %q is not one of %v", class, allowed)
}

func NewErrImmutableField(field string) error {
	return configuration("orm: field %s cannot be changed once the record is saved", field)
}

func NewErrReadOnlyRecord(class string) error {
	return configuration("orm: %s history records are read only", class)
}

func NewErrNotVersioned(class string) error {
	return configuration("orm: model class %s is not versioned", class)
}

func NewErrNoPrimaryKey(class string) error {
	return configuration("orm: %s has no primary key field", class)
}

func NewErrUnsupportedExpressionType(expr any) error {
	return fmt.Errorf("orm: unsupported expression %v", expr)
}

func NewErrUnsupportedSelectable(expr any) error {
	return fmt.Errorf("orm: unsupported selectable %v", expr)
}

func NewErrUnsupportedDriver(name string) error {
	return configuration("orm: cannot infer dialect for driver %q", name)
}

// NewErrInvalidValue is returned by strict value coercion.
func NewErrInvalidValue(field string, val any) error {
	return &Error{
		Kind: KindValidationFailed,
		Err:  fmt.Errorf("orm: invalid value %v for field %s", val, field),
	}
}

// InvalidRecordError lists the validation messages of a record that refused
// to save.
type InvalidRecordError struct {
	Class  string
	Fields map[string]any
}

func (e *InvalidRecordError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	sb.WriteString("orm: ")
	sb.WriteString(e.Class)
	sb.WriteString(" is invalid:")
	for _, name := range names {
		sb.WriteString(fmt.Sprintf(" %s: %v;", name, e.Fields[name]))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

func NewErrInvalidRecord(class string, fields map[string]any) error {
	return &Error{
		Kind: KindValidationFailed,
		Err:  &InvalidRecordError{Class: class, Fields: fields},
	}
}
