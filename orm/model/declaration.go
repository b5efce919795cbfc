package model

// Declaration 一个模型类自己声明的那一部分元数据
// 父类的声明通过 Extends 串起来，注册的时候从根到叶子依次合并
type Declaration struct {
	name     string
	parent   *Declaration
	abstract bool

	table        string
	historyTable string

	fields        []fieldDecl
	relationships []relationshipDecl
	indexes       []*Index

	subClasses     []string
	defaultClass   string
	contextClasses []string

	versioned        *bool
	versionOnDestroy *bool
	autoCreate       *bool

	handleField  string
	handleSource string

	validators []Validator
	beforeSave []Hook
	afterSave  []Hook
}

type fieldDecl struct {
	name string
	opts []FieldOption
	drop bool
}

type relationshipDecl struct {
	name string
	kind RelationKind
	opts []RelationshipOption
}

// Declare starts the declaration of a model class.
func Declare(name string) *Declaration {
	return &Declaration{name: name}
}

// Name returns the declared class name.
func (d *Declaration) Name() string {
	return d.name
}

// Extends makes d inherit everything parent declares.
func (d *Declaration) Extends(parent *Declaration) *Declaration {
	d.parent = parent
	return d
}

// Abstract marks a declaration that only contributes to its descendants.
// Abstract classes cannot own a table.
func (d *Declaration) Abstract() *Declaration {
	d.abstract = true
	return d
}

func (d *Declaration) Table(name string) *Declaration {
	d.table = name
	return d
}

func (d *Declaration) HistoryTable(name string) *Declaration {
	d.historyTable = name
	return d
}

// Field declares a field, or adds options to a field an ancestor declared.
func (d *Declaration) Field(name string, opts ...FieldOption) *Declaration {
	d.fields = append(d.fields, fieldDecl{name: name, opts: opts})
	return d
}

// TypedField declares a field by a bare type name such as "timestamp".
// An unknown name fails registration.
func (d *Declaration) TypedField(name, typ string) *Declaration {
	return d.Field(name, typeName(name, typ))
}

// DropField removes a field an ancestor declared.
func (d *Declaration) DropField(name string) *Declaration {
	d.fields = append(d.fields, fieldDecl{name: name, drop: true})
	return d
}

func (d *Declaration) Relationship(name string, kind RelationKind, opts ...RelationshipOption) *Declaration {
	d.relationships = append(d.relationships, relationshipDecl{name: name, kind: kind, opts: opts})
	return d
}

// Index declares an index over one or more fields.
func (d *Declaration) Index(name string, fields []string, opts ...IndexOption) *Declaration {
	idx := &Index{Name: name, Fields: append([]string(nil), fields...)}
	for _, opt := range opts {
		opt(idx)
	}
	d.indexes = append(d.indexes, idx)
	return d
}

// SubClasses lists the class names that may be stored in this class's
// table. It drives the allowed values of the Class field.
func (d *Declaration) SubClasses(names ...string) *Declaration {
	d.subClasses = append([]string(nil), names...)
	return d
}

func (d *Declaration) DefaultClass(name string) *Declaration {
	d.defaultClass = name
	return d
}

// ContextClasses lists the classes a context-parent relationship may point at.
func (d *Declaration) ContextClasses(names ...string) *Declaration {
	d.contextClasses = append([]string(nil), names...)
	return d
}

// Versioned turns on history rows for every dirty save and for destroy.
func (d *Declaration) Versioned() *Declaration {
	on := true
	d.versioned = &on
	return d
}

func (d *Declaration) VersionOnDestroy(enabled bool) *Declaration {
	d.versionOnDestroy = &enabled
	return d
}

func (d *Declaration) AutoCreate(enabled bool) *Declaration {
	d.autoCreate = &enabled
	return d
}

// Handle declares the alternate unique lookup key of the class. When the
// handle is blank on save it is generated from source.
func (d *Declaration) Handle(field, source string) *Declaration {
	d.handleField = field
	d.handleSource = source
	return d
}

func (d *Declaration) Validate(vs ...Validator) *Declaration {
	d.validators = append(d.validators, vs...)
	return d
}

// BeforeSave registers a hook run before validation. A descendant hook with
// the same name replaces the ancestor's.
func (d *Declaration) BeforeSave(name string, fn HookFunc) *Declaration {
	d.beforeSave = append(d.beforeSave, Hook{Name: name, Fn: fn})
	return d
}

func (d *Declaration) AfterSave(name string, fn HookFunc) *Declaration {
	d.afterSave = append(d.afterSave, Hook{Name: name, Fn: fn})
	return d
}

// chain returns the ancestors of d, root first, ending with d.
func (d *Declaration) chain() []*Declaration {
	var res []*Declaration
	for cur := d; cur != nil; cur = cur.parent {
		res = append(res, cur)
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res
}

// Base is the usual root of a model hierarchy: an auto-increment ID,
// the Class discriminator, a Created timestamp and the creator's ID.
func Base() *Declaration {
	return Declare("Base").Abstract().
		Field(FieldID, Type(KindUint), Unsigned(), AutoIncrement()).
		Field(FieldClass, Type(KindEnum)).
		Field(FieldCreated, Type(KindTimestamp), Default(CurrentTimestamp)).
		Field(FieldCreatorID, Type(KindUint), Unsigned(), Nullable())
}

// VersionedBase is Base plus the history surrogate key and versioning.
func VersionedBase() *Declaration {
	return Declare("VersionedBase").Extends(Base()).Abstract().
		Field(FieldRevisionID, revisionOptions()...).
		Versioned()
}

func revisionOptions() []FieldOption {
	return []FieldOption{Type(KindUint), Unsigned(), AutoIncrement(), historyOnly()}
}
