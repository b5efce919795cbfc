package model

import (
	"sync"

	"github.com/coderi421/recordkit/orm/internal/errs"
)

// RelationKind 关联关系的类型
type RelationKind string

const (
	OneOne          RelationKind = "one-one"
	OneMany         RelationKind = "one-many"
	ManyMany        RelationKind = "many-many"
	ContextParent   RelationKind = "context-parent"
	ContextChildren RelationKind = "context-children"
	History         RelationKind = "history"
)

// IsCollection reports whether the relationship resolves to many records.
func (k RelationKind) IsCollection() bool {
	return k == OneMany || k == ManyMany || k == ContextChildren || k == History
}

// Relationship is the resolved definition of one named relationship of a
// model. Defaults that only depend on the owner are applied at
// registration; the ones that need the target model are applied by Bind.
type Relationship struct {
	Name  string
	Kind  RelationKind
	Owner string
	// Class 关联的目标类，context-parent 的目标类在运行时从 ClassField 读出来
	Class string

	Local   string
	Foreign string

	ClassField     string
	ContextClass   string
	AllowedClasses []string

	LinkClass   string
	LinkLocal   string
	LinkForeign string

	IndexField string
	Conditions Conditions
	Order      []Order

	once    sync.Once
	bindErr error
}

// RelationshipOption sets one option of a relationship declaration.
type RelationshipOption func(r *Relationship)

func Class(name string) RelationshipOption {
	return func(r *Relationship) {
		r.Class = name
	}
}

func Local(field string) RelationshipOption {
	return func(r *Relationship) {
		r.Local = field
	}
}

func Foreign(field string) RelationshipOption {
	return func(r *Relationship) {
		r.Foreign = field
	}
}

func ClassField(field string) RelationshipOption {
	return func(r *Relationship) {
		r.ClassField = field
	}
}

// ContextOf sets the class name context-children rows carry in ContextClass.
func ContextOf(class string) RelationshipOption {
	return func(r *Relationship) {
		r.ContextClass = class
	}
}

func AllowedClasses(names ...string) RelationshipOption {
	return func(r *Relationship) {
		r.AllowedClasses = append([]string(nil), names...)
	}
}

func LinkClass(name string) RelationshipOption {
	return func(r *Relationship) {
		r.LinkClass = name
	}
}

func LinkLocal(field string) RelationshipOption {
	return func(r *Relationship) {
		r.LinkLocal = field
	}
}

func LinkForeign(field string) RelationshipOption {
	return func(r *Relationship) {
		r.LinkForeign = field
	}
}

// IndexField keys the resolved collection by the value of field.
func IndexField(field string) RelationshipOption {
	return func(r *Relationship) {
		r.IndexField = field
	}
}

func Where(conds ...Condition) RelationshipOption {
	return func(r *Relationship) {
		r.Conditions = append(Conditions(nil), conds...)
	}
}

func OrderBy(orders ...Order) RelationshipOption {
	return func(r *Relationship) {
		r.Order = append([]Order(nil), orders...)
	}
}

// newRelationship merges the declarations of one relationship, root first,
// and applies the defaults that only depend on the owner.
func newRelationship(owner *Model, name string, kind RelationKind, opts []RelationshipOption) (*Relationship, error) {
	r := &Relationship{Name: name, Kind: kind, Owner: owner.Name}
	for _, opt := range opts {
		opt(r)
	}
	invalid := func(reason string) error {
		return errs.NewErrInvalidRelationship(owner.Name, name, reason)
	}
	switch kind {
	case OneOne:
		if r.Class == "" {
			return nil, invalid("class is required")
		}
		setDefault(&r.Local, name+FieldID)
		setDefault(&r.Foreign, FieldID)
	case OneMany:
		if r.Class == "" {
			return nil, invalid("class is required")
		}
		setDefault(&r.Local, FieldID)
		setDefault(&r.Foreign, owner.ShortName+FieldID)
	case ContextChildren:
		if r.Class == "" {
			return nil, invalid("class is required")
		}
		setDefault(&r.Local, FieldID)
		setDefault(&r.Foreign, FieldContextID)
		setDefault(&r.ClassField, FieldContextClass)
		setDefault(&r.ContextClass, owner.Name)
	case ContextParent:
		setDefault(&r.Local, FieldContextID)
		setDefault(&r.Foreign, FieldID)
		setDefault(&r.ClassField, FieldContextClass)
		if len(r.AllowedClasses) == 0 {
			r.AllowedClasses = append([]string(nil), owner.ContextClasses...)
		}
		if !owner.HasField(r.ClassField) {
			return nil, invalid("class field " + r.ClassField + " is not declared")
		}
	case ManyMany:
		if r.Class == "" || r.LinkClass == "" {
			return nil, invalid("class and link class are required")
		}
		setDefault(&r.Local, FieldID)
		setDefault(&r.Foreign, FieldID)
		setDefault(&r.LinkLocal, owner.ShortName+FieldID)
	case History:
		if !owner.Versioned {
			return nil, invalid("history needs a versioned class")
		}
		setDefault(&r.Class, owner.Name)
		setDefault(&r.Local, owner.PrimaryKey)
		setDefault(&r.Foreign, owner.PrimaryKey)
		if len(r.Order) == 0 {
			r.Order = []Order{Desc(FieldRevisionID)}
		}
	default:
		return nil, invalid("unknown kind " + string(kind))
	}
	if !owner.HasField(r.Local) {
		return nil, invalid("local field " + r.Local + " is not declared")
	}
	return r, nil
}

// dependsOn lists the owner fields whose mutation evicts a cached value.
func (r *Relationship) dependsOn() []string {
	if r.Kind == ContextParent {
		return []string{r.ClassField, r.Local}
	}
	return []string{r.Local}
}

// Bind applies the defaults and checks that need the target classes. It
// runs once per relationship; later calls return the first result.
func (r *Relationship) Bind(reg *Registry) error {
	r.once.Do(func() {
		r.bindErr = r.bind(reg)
	})
	return r.bindErr
}

func (r *Relationship) bind(reg *Registry) error {
	invalid := func(reason string) error {
		return errs.NewErrInvalidRelationship(r.Owner, r.Name, reason)
	}
	if r.Kind == ContextParent {
		for _, c := range r.AllowedClasses {
			if _, err := reg.Get(c); err != nil {
				return err
			}
		}
		return nil
	}
	target, err := reg.Get(r.Class)
	if err != nil {
		return err
	}
	if !target.HasField(r.Foreign) {
		return invalid("foreign field " + r.Foreign + " is not declared on " + target.Name)
	}
	if r.Kind == ContextChildren && !target.HasField(r.ClassField) {
		return invalid("class field " + r.ClassField + " is not declared on " + target.Name)
	}
	if r.IndexField != "" && !target.HasField(r.IndexField) {
		return invalid("index field " + r.IndexField + " is not declared on " + target.Name)
	}
	for _, c := range r.Conditions {
		if c.Raw == "" && !target.HasField(c.Field) {
			return invalid("condition field " + c.Field + " is not declared on " + target.Name)
		}
	}
	if r.Kind != ManyMany {
		return nil
	}
	link, err := reg.Get(r.LinkClass)
	if err != nil {
		return err
	}
	if r.LinkForeign == "" {
		root, err := reg.Get(target.RootClass)
		if err != nil {
			return err
		}
		r.LinkForeign = root.ShortName + FieldID
	}
	if !link.HasField(r.LinkLocal) || !link.HasField(r.LinkForeign) {
		return invalid("link class " + link.Name + " must declare " + r.LinkLocal + " and " + r.LinkForeign)
	}
	return nil
}

func setDefault(dst *string, val string) {
	if *dst == "" {
		*dst = val
	}
}
