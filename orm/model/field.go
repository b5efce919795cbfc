package model

// Kind 字段的逻辑类型，决定取值转换和建表时的列类型
type Kind string

const (
	KindString     Kind = "string"
	KindVarchar    Kind = "varchar"
	KindChar       Kind = "char"
	KindClob       Kind = "clob"
	KindPassword   Kind = "password"
	KindInteger    Kind = "integer"
	KindInt        Kind = "int"
	KindUint       Kind = "uint"
	KindFloat      Kind = "float"
	KindDecimal    Kind = "decimal"
	KindBoolean    Kind = "boolean"
	KindEnum       Kind = "enum"
	KindSet        Kind = "set"
	KindList       Kind = "list"
	KindDate       Kind = "date"
	KindTimestamp  Kind = "timestamp"
	KindSerialized Kind = "serialized"
	KindJSON       Kind = "json"
	KindBinary     Kind = "binary"
	KindBlob       Kind = "blob"
	KindUUID       Kind = "uuid"
)

var kinds = map[string]Kind{}

func init() {
	for _, k := range []Kind{
		KindString, KindVarchar, KindChar, KindClob, KindPassword,
		KindInteger, KindInt, KindUint, KindFloat, KindDecimal,
		KindBoolean, KindEnum, KindSet, KindList, KindDate, KindTimestamp,
		KindSerialized, KindJSON, KindBinary, KindBlob, KindUUID,
	} {
		kinds[string(k)] = k
	}
}

// KindOf looks up a type by its declared name.
func KindOf(name string) (Kind, bool) {
	k, ok := kinds[name]
	return k, ok
}

// IsInteger reports whether values of k are whole numbers.
func (k Kind) IsInteger() bool {
	return k == KindInteger || k == KindInt || k == KindUint
}

// CurrentTimestamp is the sentinel stored in timestamp fields that should
// take the database's clock.
const CurrentTimestamp = "CURRENT_TIMESTAMP"

// DefaultDelimiter joins list and set members.
const DefaultDelimiter = ","

// Field 解析、合并、归一化之后的字段定义
type Field struct {
	Name          string
	ColumnName    string
	Type          Kind
	Length        int
	Precision     int
	Scale         int
	NotNull       bool
	Unique        bool
	Primary       bool
	AutoIncrement bool
	Unsigned      bool
	// Default is nil when the field has no declared default.
	Default     any
	Values      []string
	Delimiter   string
	BlankIsNull bool
	Index       bool
	Fulltext    bool
	// HistoryOnly fields exist only in the history table (RevisionID).
	HistoryOnly bool
}

// HasDefault reports whether a default value was declared.
func (f *Field) HasDefault() bool {
	return f.Default != nil
}

// DefaultsToCurrentTimestamp reports whether the column takes the database
// clock when no value is given.
func (f *Field) DefaultsToCurrentTimestamp() bool {
	s, ok := f.Default.(string)
	return ok && s == CurrentTimestamp
}

// FieldOption sets one option of a field declaration. Options from an
// ancestor are applied before options from descendants, so the most
// derived declaration of an option wins.
type FieldOption func(spec *fieldSpec)

type fieldSpec struct {
	Field
	notNullSet     bool
	blankIsNullSet bool
	delimiterSet   bool
	// err is reported when the declaration is registered
	err error
}

func Type(k Kind) FieldOption {
	return func(spec *fieldSpec) {
		spec.Type = k
	}
}

func Column(name string) FieldOption {
	return func(spec *fieldSpec) {
		spec.ColumnName = name
	}
}

func Length(n int) FieldOption {
	return func(spec *fieldSpec) {
		spec.Length = n
	}
}

// Precision sets the precision and scale of decimal columns.
func Precision(precision, scale int) FieldOption {
	return func(spec *fieldSpec) {
		spec.Precision = precision
		spec.Scale = scale
	}
}

func NotNull(notNull bool) FieldOption {
	return func(spec *fieldSpec) {
		spec.NotNull = notNull
		spec.notNullSet = true
	}
}

// Nullable is NotNull(false).
func Nullable() FieldOption {
	return NotNull(false)
}

func Unique() FieldOption {
	return func(spec *fieldSpec) {
		spec.Unique = true
	}
}

func Primary() FieldOption {
	return func(spec *fieldSpec) {
		spec.Primary = true
	}
}

func AutoIncrement() FieldOption {
	return func(spec *fieldSpec) {
		spec.AutoIncrement = true
	}
}

func Unsigned() FieldOption {
	return func(spec *fieldSpec) {
		spec.Unsigned = true
	}
}

func Default(val any) FieldOption {
	return func(spec *fieldSpec) {
		spec.Default = val
	}
}

func Values(vals ...string) FieldOption {
	return func(spec *fieldSpec) {
		spec.Values = append([]string(nil), vals...)
	}
}

func Delimiter(d string) FieldOption {
	return func(spec *fieldSpec) {
		spec.Delimiter = d
		spec.delimiterSet = true
	}
}

func BlankIsNull(b bool) FieldOption {
	return func(spec *fieldSpec) {
		spec.BlankIsNull = b
		spec.blankIsNullSet = true
	}
}

func Indexed() FieldOption {
	return func(spec *fieldSpec) {
		spec.Index = true
	}
}

func Fulltext() FieldOption {
	return func(spec *fieldSpec) {
		spec.Fulltext = true
	}
}

func historyOnly() FieldOption {
	return func(spec *fieldSpec) {
		spec.HistoryOnly = true
	}
}

// typeName parses a bare type name. Unknown names fail registration.
func typeName(field, name string) FieldOption {
	return func(spec *fieldSpec) {
		k, ok := KindOf(name)
		if !ok {
			spec.err = errUnknownType(field, name)
			return
		}
		spec.Type = k
	}
}

// normalize applies the default mask to a merged declaration.
func (spec *fieldSpec) normalize(name string, subClasses []string) *Field {
	f := spec.Field
	f.Name = name
	if f.Type == "" {
		f.Type = KindString
	}
	if !spec.notNullSet {
		f.NotNull = true
	}
	if f.ColumnName == "" {
		f.ColumnName = name
	}
	if f.AutoIncrement {
		f.Primary = true
	}
	if !spec.blankIsNullSet && !f.NotNull {
		f.BlankIsNull = true
	}
	if !spec.delimiterSet && (f.Type == KindList || f.Type == KindSet) {
		f.Delimiter = DefaultDelimiter
	}
	if name == FieldClass {
		f.Values = append([]string(nil), subClasses...)
	}
	return &f
}

func newFieldSpec() *fieldSpec {
	return &fieldSpec{}
}
