package model

import (
	"sort"
	"sync"

	"github.com/gotomicro/ekit/slice"
	"github.com/gotomicro/ekit/syncx"

	"github.com/coderi421/recordkit/orm/internal/errs"
)

// Registry 元数据注册中心，解析之后的 Model 按类名缓存
// 同一个类只会被解析一次，可以被多个 goroutine 同时使用
type Registry struct {
	decls  syncx.Map[string, *Declaration]
	models syncx.Map[string, *entry]
	// tables 表名（包括历史表）到根类名的映射
	tables syncx.Map[string, string]
}

type entry struct {
	decl *Declaration
	once sync.Once
	m    *Model
	err  error
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register registers d together with its concrete ancestors and returns
// the resolved model of d. Registering the same declaration again is a
// no-op; registering a different declaration under a taken name fails.
func (r *Registry) Register(d *Declaration) (*Model, error) {
	if d.abstract {
		return nil, errs.NewErrAbstractClass(d.name)
	}
	chain := d.chain()
	for _, c := range chain {
		if c.abstract {
			continue
		}
		prev, loaded := r.decls.LoadOrStore(c.name, c)
		if loaded && prev != c {
			return nil, errs.NewErrDuplicateClass(c.name)
		}
		r.models.LoadOrStore(c.name, &entry{decl: c})
	}
	for _, c := range chain {
		if c.abstract || c == d {
			continue
		}
		if _, err := r.Get(c.name); err != nil {
			return nil, err
		}
	}
	return r.Get(d.name)
}

// MustRegister is Register that panics on error, for package level catalogues.
func (r *Registry) MustRegister(d *Declaration) *Model {
	m, err := r.Register(d)
	if err != nil {
		panic(err)
	}
	return m
}

// Get 查找元数据模型，第一次访问的时候解析
func (r *Registry) Get(name string) (*Model, error) {
	e, ok := r.models.Load(name)
	if !ok {
		return nil, errs.NewErrUnknownClass(name)
	}
	e.once.Do(func() {
		e.m, e.err = resolve(e.decl)
		if e.err != nil {
			return
		}
		r.tables.LoadOrStore(e.m.TableName, e.m.RootClass)
		if e.m.Versioned {
			r.tables.LoadOrStore(e.m.HistoryTableName, e.m.RootClass)
		}
	})
	return e.m, e.err
}

// ByTable returns the model owning table, which may be a primary or a
// history table.
func (r *Registry) ByTable(table string) (*Model, bool) {
	root, ok := r.tables.Load(table)
	if !ok {
		return nil, false
	}
	m, err := r.Get(root)
	return m, err == nil
}

// Classes returns the registered class names, sorted.
func (r *Registry) Classes() []string {
	var res []string
	r.models.Range(func(name string, _ *entry) bool {
		res = append(res, name)
		return true
	})
	sort.Strings(res)
	return res
}

// TableFields returns the columns of m's table: m's stored fields followed
// by the fields only registered subclasses sharing the table declare.
// Subclass-only fields are nullable since other classes never fill them.
func (r *Registry) TableFields(m *Model) []*Field {
	res := m.StoredFields()
	seen := make(map[string]bool, len(res))
	for _, f := range res {
		seen[f.ColumnName] = true
	}
	for _, name := range r.Classes() {
		sub, err := r.Get(name)
		if err != nil || sub == m || sub.TableName != m.TableName {
			continue
		}
		for _, f := range sub.StoredFields() {
			if seen[f.ColumnName] {
				continue
			}
			seen[f.ColumnName] = true
			cp := *f
			cp.NotNull = false
			cp.Primary = false
			cp.AutoIncrement = false
			res = append(res, &cp)
		}
	}
	return res
}

// Discriminate resolves the class a row of m's table is loaded as from the
// value of its Class column. Unregistered or disallowed classes fail.
func (r *Registry) Discriminate(m *Model, class string) (*Model, error) {
	if class == "" {
		class = m.DefaultClass
	}
	if class == m.Name {
		return m, nil
	}
	root, err := r.Get(m.RootClass)
	if err != nil {
		return nil, err
	}
	if !root.AllowsClass(class) && !m.AllowsClass(class) {
		return nil, errs.NewErrDisallowedClass(class, root.SubClasses)
	}
	target, err := r.Get(class)
	if err != nil {
		return nil, err
	}
	if target.TableName != m.TableName {
		return nil, errs.NewErrDisallowedClass(class, root.SubClasses)
	}
	return target, nil
}

// resolve merges the declarations of d's chain, root first, into a model.
func resolve(d *Declaration) (*Model, error) {
	chain := d.chain()
	m := &Model{
		Name:      d.name,
		ShortName: shortName(d.name),
	}

	var (
		fieldOrder []string
		fieldOpts  = map[string][]FieldOption{}
		relOrder   []string
		relDecls   = map[string]*relationshipDecl{}
		indexes    []*Index
		versioned  bool
		onDestroy  *bool
		autoCreate bool
	)
	for _, c := range chain {
		m.Ancestors = append(m.Ancestors, c.name)
		if !c.abstract && m.RootClass == "" {
			m.RootClass = c.name
		}
		if c.table != "" {
			m.TableName = c.table
		}
		if c.historyTable != "" {
			m.HistoryTableName = c.historyTable
		}
		if c.subClasses != nil {
			m.SubClasses = c.subClasses
		}
		if c.defaultClass != "" {
			m.DefaultClass = c.defaultClass
		}
		if c.contextClasses != nil {
			m.ContextClasses = c.contextClasses
		}
		if c.versioned != nil {
			versioned = *c.versioned
		}
		if c.versionOnDestroy != nil {
			onDestroy = c.versionOnDestroy
		}
		if c.autoCreate != nil {
			autoCreate = *c.autoCreate
		}
		if c.handleField != "" {
			m.HandleField, m.HandleSource = c.handleField, c.handleSource
		}

		for _, fd := range c.fields {
			if fd.drop {
				delete(fieldOpts, fd.name)
				fieldOrder = remove(fieldOrder, fd.name)
				continue
			}
			if _, ok := fieldOpts[fd.name]; !ok {
				fieldOrder = append(fieldOrder, fd.name)
			}
			// 祖先的选项在前，子类的在后，同一个选项子类的生效
			fieldOpts[fd.name] = append(fieldOpts[fd.name], fd.opts...)
		}

		for i := range c.relationships {
			rd := c.relationships[i]
			prev, ok := relDecls[rd.name]
			if !ok {
				relOrder = append(relOrder, rd.name)
				cp := rd
				cp.opts = append([]RelationshipOption(nil), rd.opts...)
				relDecls[rd.name] = &cp
				continue
			}
			prev.kind = rd.kind
			prev.opts = append(prev.opts, rd.opts...)
		}

		for _, idx := range c.indexes {
			indexes = replaceIndex(indexes, idx)
		}

		m.Validators = append(m.Validators, c.validators...)
		m.BeforeSave = mergeHooks(m.BeforeSave, c.beforeSave)
		m.AfterSave = mergeHooks(m.AfterSave, c.afterSave)
	}

	if m.TableName == "" {
		m.TableName = underscoreName(shortName(m.RootClass))
	}
	if m.HistoryTableName == "" {
		m.HistoryTableName = "history_" + m.TableName
	}
	if len(m.SubClasses) == 0 {
		m.SubClasses = []string{m.RootClass}
		if m.Name != m.RootClass {
			m.SubClasses = append(m.SubClasses, m.Name)
		}
	}
	if m.DefaultClass == "" {
		m.DefaultClass = m.Name
	}
	m.Versioned = versioned
	m.VersionOnSave = versioned
	m.VersionOnDestroy = versioned && (onDestroy == nil || *onDestroy)
	m.AutoCreate = autoCreate

	if versioned {
		if _, ok := fieldOpts[FieldRevisionID]; !ok {
			fieldOrder = append(fieldOrder, FieldRevisionID)
			fieldOpts[FieldRevisionID] = revisionOptions()
		}
	}

	m.FieldMap = make(map[string]*Field, len(fieldOrder))
	m.ColumnMap = make(map[string]*Field, len(fieldOrder))
	for _, name := range fieldOrder {
		spec := newFieldSpec()
		for _, opt := range fieldOpts[name] {
			opt(spec)
		}
		if spec.err != nil {
			return nil, spec.err
		}
		f := spec.normalize(name, m.SubClasses)
		if _, dup := m.ColumnMap[f.ColumnName]; dup {
			return nil, errs.NewErrInvalidIndex(m.Name, f.ColumnName, "column mapped by more than one field")
		}
		m.Fields = append(m.Fields, f)
		m.FieldMap[name] = f
		m.ColumnMap[f.ColumnName] = f
		if f.Primary && !f.HistoryOnly && m.PrimaryKey == "" {
			m.PrimaryKey = name
		}
	}
	if m.PrimaryKey == "" {
		return nil, errs.NewErrNoPrimaryKey(m.Name)
	}

	if m.HandleField != "" {
		f, ok := m.FieldMap[m.HandleField]
		if !ok {
			return nil, errs.NewErrUnknownField(m.HandleField)
		}
		f.Unique = true
		if m.HandleSource != "" && !m.HasField(m.HandleSource) {
			return nil, errs.NewErrUnknownField(m.HandleSource)
		}
	}

	for _, idx := range indexes {
		if len(idx.Fields) == 0 {
			return nil, errs.NewErrInvalidIndex(m.Name, idx.Name, "no fields")
		}
		for _, name := range idx.Fields {
			if !m.HasField(name) {
				return nil, errs.NewErrInvalidIndex(m.Name, idx.Name, "unknown field "+name)
			}
		}
	}
	m.Indexes = indexes

	if m.Versioned && !slice.Contains(relOrder, HistoryRelationship) {
		relOrder = append(relOrder, HistoryRelationship)
		relDecls[HistoryRelationship] = &relationshipDecl{name: HistoryRelationship, kind: History}
	}
	m.RelationshipMap = make(map[string]*Relationship, len(relOrder))
	m.dependents = map[string][]string{}
	for _, name := range relOrder {
		rd := relDecls[name]
		rel, err := newRelationship(m, name, rd.kind, rd.opts)
		if err != nil {
			return nil, err
		}
		m.Relationships = append(m.Relationships, rel)
		m.RelationshipMap[name] = rel
		for _, f := range rel.dependsOn() {
			m.dependents[f] = append(m.dependents[f], name)
		}
	}
	return m, nil
}

func remove(names []string, name string) []string {
	res := names[:0]
	for _, n := range names {
		if n != name {
			res = append(res, n)
		}
	}
	return res
}

func replaceIndex(indexes []*Index, idx *Index) []*Index {
	for i, old := range indexes {
		if old.Name == idx.Name {
			indexes[i] = idx
			return indexes
		}
	}
	return append(indexes, idx)
}
