package model

import (
	"strings"
	"unicode"

	"github.com/coderi421/recordkit/orm/internal/errs"
)

// 约定俗成的字段名
const (
	FieldID           = "ID"
	FieldClass        = "Class"
	FieldCreated      = "Created"
	FieldCreatorID    = "CreatorID"
	FieldRevisionID   = "RevisionID"
	FieldContextClass = "ContextClass"
	FieldContextID    = "ContextID"
	FieldHandle       = "Handle"
)

// HistoryRelationship is the name of the relationship injected into
// versioned models.
const HistoryRelationship = "History"

// Model 一个模型类解析之后的全部元数据，注册之后只读
type Model struct {
	// Name 模型类名，同时也是 Class 列里存的值
	Name      string
	ShortName string

	TableName        string
	HistoryTableName string

	// RootClass 拥有这张表的祖先类
	RootClass    string
	DefaultClass string
	SubClasses   []string
	// Ancestors lists the declared chain root first, ending with Name.
	Ancestors      []string
	ContextClasses []string

	Versioned        bool
	VersionOnSave    bool
	VersionOnDestroy bool
	AutoCreate       bool

	Fields    []*Field
	FieldMap  map[string]*Field
	ColumnMap map[string]*Field

	// PrimaryKey 主键字段名
	PrimaryKey string
	// HandleField is the alternate unique lookup key, empty when none.
	HandleField string
	// HandleSource is the field a blank handle is generated from.
	HandleSource string

	Indexes []*Index

	Relationships   []*Relationship
	RelationshipMap map[string]*Relationship
	// dependents maps a field name to the relationships whose cached
	// value depends on it
	dependents map[string][]string

	Validators []Validator
	BeforeSave []Hook
	AfterSave  []Hook
}

// Field looks a field up by its logical name.
func (m *Model) Field(name string) (*Field, bool) {
	f, ok := m.FieldMap[name]
	return f, ok
}

// HasField reports whether the model declares name.
func (m *Model) HasField(name string) bool {
	_, ok := m.FieldMap[name]
	return ok
}

// Relationship looks a relationship up by name.
func (m *Model) Relationship(name string) (*Relationship, bool) {
	r, ok := m.RelationshipMap[name]
	return r, ok
}

// DependentRelationships returns the relationships that must be re-resolved
// after field changes.
func (m *Model) DependentRelationships(field string) []string {
	return m.dependents[field]
}

// PrimaryField returns the primary key field.
func (m *Model) PrimaryField() (*Field, error) {
	f, ok := m.FieldMap[m.PrimaryKey]
	if !ok {
		return nil, errs.NewErrNoPrimaryKey(m.Name)
	}
	return f, nil
}

// StoredFields returns the fields that have a column in the primary table.
func (m *Model) StoredFields() []*Field {
	res := make([]*Field, 0, len(m.Fields))
	for _, f := range m.Fields {
		if !f.HistoryOnly {
			res = append(res, f)
		}
	}
	return res
}

// AllowsClass reports whether rows of this model's table may carry class
// as their discriminator.
func (m *Model) AllowsClass(class string) bool {
	if class == m.Name {
		return true
	}
	for _, c := range m.SubClasses {
		if c == class {
			return true
		}
	}
	return false
}

// IsA reports whether class is this model or one of its ancestors.
func (m *Model) IsA(class string) bool {
	for _, a := range m.Ancestors {
		if a == class {
			return true
		}
	}
	return false
}

// Index 额外声明的索引
type Index struct {
	Name     string
	Fields   []string
	Unique   bool
	Fulltext bool
}

// IndexOption configures an explicit index.
type IndexOption func(idx *Index)

func UniqueIndex() IndexOption {
	return func(idx *Index) {
		idx.Unique = true
	}
}

func FulltextIndex() IndexOption {
	return func(idx *Index) {
		idx.Fulltext = true
	}
}

// shortName strips any package or namespace qualifier: app.Tag -> Tag
func shortName(name string) string {
	if i := strings.LastIndexAny(name, "./\\"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// underscoreName converts a given table name to underscore case.
// UserName -> user_name
func underscoreName(name string) string {
	var buf []rune
	for i, v := range name {
		if unicode.IsUpper(v) {
			if i != 0 {
				buf = append(buf, '_')
			}
			buf = append(buf, unicode.ToLower(v))
		} else {
			buf = append(buf, v)
		}
	}
	return string(buf)
}

func errUnknownType(field, name string) error {
	return errs.NewErrInvalidFieldType(field, name)
}
