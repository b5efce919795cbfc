package orm

import (
	"context"
	"errors"
	"fmt"

	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/model"
)

// Related resolves a named relationship. One-one and context-parent
// relationships give a *Record or nil, every other kind a []*Record.
// Results are cached on the record until a field they depend on changes.
func (r *Record) Related(ctx context.Context, name string) (any, error) {
	if v, ok := r.related[name]; ok {
		return v, nil
	}
	rel, ok := r.model.Relationship(name)
	if !ok {
		return nil, errs.NewErrUnknownRelationship(r.model.Name, name)
	}
	if err := rel.Bind(r.db.r); err != nil {
		return nil, err
	}
	var (
		v   any
		err error
	)
	switch rel.Kind {
	case model.OneOne:
		v, err = r.resolveOne(ctx, rel)
	case model.ContextParent:
		v, err = r.resolveContextParent(ctx, rel)
	case model.OneMany, model.ContextChildren:
		v, err = r.resolveMany(ctx, rel)
	case model.ManyMany:
		v, err = r.resolveLinked(ctx, rel)
	case model.History:
		v, err = r.resolveHistory(ctx, rel)
	}
	if err != nil {
		return nil, err
	}
	r.related[name] = v
	return v, nil
}

// One resolves a single valued relationship.
func (r *Record) One(ctx context.Context, name string) (*Record, error) {
	v, err := r.Related(ctx, name)
	if err != nil {
		return nil, err
	}
	res, ok := v.(*Record)
	if !ok && v != nil {
		return nil, errs.NewErrInvalidRelationship(r.model.Name, name, "is a collection")
	}
	return res, nil
}

// Many resolves a collection relationship.
func (r *Record) Many(ctx context.Context, name string) ([]*Record, error) {
	v, err := r.Related(ctx, name)
	if err != nil {
		return nil, err
	}
	res, ok := v.([]*Record)
	if !ok && v != nil {
		return nil, errs.NewErrInvalidRelationship(r.model.Name, name, "is not a collection")
	}
	return res, nil
}

// Indexed resolves a collection keyed by the IndexField of the
// relationship. Later records win on duplicate keys.
func (r *Record) Indexed(ctx context.Context, name string) (map[string]*Record, error) {
	rel, ok := r.model.Relationship(name)
	if !ok {
		return nil, errs.NewErrUnknownRelationship(r.model.Name, name)
	}
	if rel.IndexField == "" {
		return nil, errs.NewErrInvalidRelationship(r.model.Name, name, "has no index field")
	}
	rs, err := r.Many(ctx, name)
	if err != nil {
		return nil, err
	}
	res := make(map[string]*Record, len(rs))
	for _, rec := range rs {
		v, err := rec.Get(rel.IndexField)
		if err != nil {
			return nil, err
		}
		res[fmt.Sprint(v)] = rec
	}
	return res, nil
}

// local 本地字段的存储值
func (r *Record) local(rel *model.Relationship) any {
	f := r.model.FieldMap[rel.Local]
	return r.raw[f.ColumnName]
}

func (r *Record) resolveOne(ctx context.Context, rel *model.Relationship) (any, error) {
	local := r.local(rel)
	if blank(local) {
		return nil, nil
	}
	f, err := r.db.Finder(rel.Class)
	if err != nil {
		return nil, err
	}
	return orNil(f.GetByField(ctx, rel.Foreign, local))
}

// resolveContextParent 目标类从 ClassField 读出来，必须是允许的类或者它们的子类
func (r *Record) resolveContextParent(ctx context.Context, rel *model.Relationship) (any, error) {
	local := r.local(rel)
	class, _ := r.raw[r.model.FieldMap[rel.ClassField].ColumnName].(string)
	if blank(local) || class == "" {
		return nil, nil
	}
	f, err := r.db.Finder(class)
	if err != nil {
		return nil, err
	}
	if !allowed(f.model, rel.AllowedClasses) {
		return nil, errs.NewErrDisallowedClass(class, rel.AllowedClasses)
	}
	return orNil(f.GetByField(ctx, rel.Foreign, local))
}

func allowed(m *model.Model, classes []string) bool {
	for _, c := range classes {
		if m.IsA(c) {
			return true
		}
	}
	return len(classes) == 0
}

func (r *Record) resolveMany(ctx context.Context, rel *model.Relationship) (any, error) {
	local := r.local(rel)
	if blank(local) {
		return []*Record{}, nil
	}
	f, err := r.db.Finder(rel.Class)
	if err != nil {
		return nil, err
	}
	conds := model.Conditions{model.Eq(rel.Foreign, local)}
	if rel.Kind == model.ContextChildren {
		conds = append(conds, model.Eq(rel.ClassField, rel.ContextClass))
	}
	conds = append(conds, rel.Conditions...)
	return f.GetAllByWhere(ctx, conds, Order(rel.Order...))
}

const (
	relatedAlias = "Related"
	linkAlias    = "Link"
)

// resolveLinked 通过中间表关联
// SELECT `Related`.* FROM target AS `Related` JOIN link AS `Link` ON ...
func (r *Record) resolveLinked(ctx context.Context, rel *model.Relationship) (any, error) {
	local := r.local(rel)
	if blank(local) {
		return []*Record{}, nil
	}
	target, err := r.db.r.Get(rel.Class)
	if err != nil {
		return nil, err
	}
	link, err := r.db.r.Get(rel.LinkClass)
	if err != nil {
		return nil, err
	}
	c := compiler{codec: r.db.codec, model: target, table: relatedAlias}
	ps, err := c.conditions(rel.Conditions)
	if err != nil {
		return nil, err
	}
	obs, err := c.order(rel.Order)
	if err != nil {
		return nil, err
	}
	lc := compiler{codec: r.db.codec, model: link, table: linkAlias}
	lp, err := lc.conditions(model.Conditions{model.Eq(rel.LinkLocal, local)})
	if err != nil {
		return nil, err
	}
	s := NewSelector(target).Dialect(r.db.dialect).
		Alias(relatedAlias).
		Select(AllOf(relatedAlias)).
		Join(link, linkAlias, C(rel.LinkForeign).Of(linkAlias).EQ(C(rel.Foreign).Of(relatedAlias))).
		Where(append(lp, ps...)...).
		OrderBy(obs...)
	rows, err := r.db.AllRecords(ctx, s)
	if err != nil {
		return nil, err
	}
	return r.db.loadAll(target, rows)
}

func (r *Record) resolveHistory(ctx context.Context, rel *model.Relationship) (any, error) {
	local := r.local(rel)
	if blank(local) {
		return []*Record{}, nil
	}
	f, err := r.db.Finder(rel.Class)
	if err != nil {
		return nil, err
	}
	s, err := f.historySelector(local, rel.Order)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.AllRecords(ctx, s)
	if err != nil {
		return nil, err
	}
	return r.db.loadHistory(f.model, rows), nil
}

func orNil(rec *Record, err error) (any, error) {
	if errors.Is(err, ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// SetRelated assigns a single valued relationship a *Record (or nil) and a
// one-many or context-children relationship a []*Record. The assigned
// records are written by the next deep Save.
func (r *Record) SetRelated(name string, val any) error {
	if r.history {
		return errs.NewErrReadOnlyRecord(r.model.Name)
	}
	rel, ok := r.model.Relationship(name)
	if !ok {
		return errs.NewErrUnknownRelationship(r.model.Name, name)
	}
	if err := rel.Bind(r.db.r); err != nil {
		return err
	}
	switch rel.Kind {
	case model.OneOne, model.ContextParent:
		parent, ok := val.(*Record)
		if !ok && val != nil {
			return errs.NewErrInvalidRelationship(r.model.Name, name, fmt.Sprintf("cannot be assigned %T", val))
		}
		return r.setParent(rel, parent)
	case model.OneMany, model.ContextChildren:
		children, ok := val.([]*Record)
		if !ok && val != nil {
			return errs.NewErrInvalidRelationship(r.model.Name, name, fmt.Sprintf("cannot be assigned %T", val))
		}
		for _, c := range children {
			if !c.model.IsA(rel.Class) {
				return errs.NewErrInvalidRelationship(r.model.Name, name, "cannot hold "+c.model.Name)
			}
		}
		if children == nil {
			children = []*Record{}
		}
		r.related[name] = children
		r.assigned[name] = true
		return nil
	}
	return errs.NewErrInvalidRelationship(r.model.Name, name, "cannot be assigned")
}

// setParent 父记录已经保存过的话，马上把它的键复制到本地字段
func (r *Record) setParent(rel *model.Relationship, parent *Record) error {
	if parent == nil {
		if err := r.Set(rel.Local, nil); err != nil {
			return err
		}
		if rel.Kind == model.ContextParent {
			if err := r.Set(rel.ClassField, nil); err != nil {
				return err
			}
		}
		r.related[rel.Name] = nil
		r.assigned[rel.Name] = true
		return nil
	}
	if rel.Kind == model.OneOne && !parent.model.IsA(rel.Class) {
		return errs.NewErrInvalidRelationship(r.model.Name, rel.Name, "cannot hold "+parent.model.Name)
	}
	if rel.Kind == model.ContextParent && !allowed(parent.model, rel.AllowedClasses) {
		return errs.NewErrDisallowedClass(parent.model.Name, rel.AllowedClasses)
	}
	if !parent.phantom {
		if err := r.copyParentKeys(rel, parent); err != nil {
			return err
		}
	}
	// 复制键会让关联缓存失效，最后再放回去
	r.related[rel.Name] = parent
	r.assigned[rel.Name] = true
	return nil
}

func (r *Record) copyParentKeys(rel *model.Relationship, parent *Record) error {
	v, err := parent.Get(rel.Foreign)
	if err != nil {
		return err
	}
	if err = r.Set(rel.Local, v); err != nil {
		return err
	}
	if rel.Kind == model.ContextParent {
		return r.Set(rel.ClassField, parent.model.Name)
	}
	return nil
}

// saveParents 先保存父记录，拿到主键之后填到本地字段
func (r *Record) saveParents(ctx context.Context) error {
	for _, rel := range r.model.Relationships {
		if rel.Kind != model.OneOne && rel.Kind != model.ContextParent {
			continue
		}
		parent, ok := r.related[rel.Name].(*Record)
		if !ok || parent == nil {
			continue
		}
		assigned := r.assigned[rel.Name]
		if parent.dirty || parent.phantom {
			if err := parent.save(ctx, true); err != nil {
				return err
			}
		}
		if err := r.copyParentKeys(rel, parent); err != nil {
			return err
		}
		r.related[rel.Name] = parent
		if assigned {
			r.assigned[rel.Name] = true
		}
	}
	return nil
}

// saveChildren 主表写完之后保存子记录，外键指向刚写好的主键
func (r *Record) saveChildren(ctx context.Context) error {
	for _, rel := range r.model.Relationships {
		if rel.Kind != model.OneMany && rel.Kind != model.ContextChildren {
			continue
		}
		children, ok := r.related[rel.Name].([]*Record)
		if !ok {
			continue
		}
		local, err := r.Get(rel.Local)
		if err != nil {
			return err
		}
		for _, c := range children {
			if err = c.Set(rel.Foreign, local); err != nil {
				return err
			}
			if rel.Kind == model.ContextChildren {
				if err = c.Set(rel.ClassField, rel.ContextClass); err != nil {
					return err
				}
			}
			if !c.dirty {
				continue
			}
			if err = c.save(ctx, true); err != nil {
				return err
			}
		}
	}
	return nil
}
