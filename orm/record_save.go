package orm

import (
	"context"

	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/model"
)

// Save writes the record together with the related records assigned to
// it or resolved and changed since.
func (r *Record) Save(ctx context.Context) error {
	return r.save(ctx, true)
}

// SaveShallow writes only the record itself.
func (r *Record) SaveShallow(ctx context.Context) error {
	return r.save(ctx, false)
}

func (r *Record) save(ctx context.Context, deep bool) error {
	if r.history {
		return errs.NewErrReadOnlyRecord(r.model.Name)
	}
	if r.saving {
		return nil
	}
	r.saving = true
	defer func() {
		r.saving = false
	}()

	for _, h := range r.model.BeforeSave {
		if err := h.Fn(ctx, r); err != nil {
			return err
		}
	}
	r.beforeVersionedSave()
	if err := r.stamp(ctx); err != nil {
		return err
	}

	if !r.validate(deep, nil) {
		return errs.NewErrInvalidRecord(r.model.Name, r.validationErrors)
	}

	if deep {
		if err := r.saveParents(ctx); err != nil {
			return err
		}
	}

	r.clearCache(ctx)

	wrote, err := r.write(ctx)
	if err != nil {
		return err
	}

	if deep {
		if err = r.saveChildren(ctx); err != nil {
			return err
		}
	}

	if err = r.afterVersionedSave(ctx, wrote); err != nil {
		return err
	}

	for _, h := range r.model.AfterSave {
		if err = h.Fn(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// stamp 填写 Created、CreatorID 以及 handle
func (r *Record) stamp(ctx context.Context) error {
	// 只给新记录填 Created
	if f, ok := r.model.Field(model.FieldCreated); ok && r.phantom {
		raw := r.raw[f.ColumnName]
		if raw == nil || raw == model.CurrentTimestamp {
			if err := r.Set(f.Name, r.db.now()); err != nil {
				return err
			}
		}
	}
	if f, ok := r.model.Field(model.FieldCreatorID); ok && r.phantom && r.raw[f.ColumnName] == nil {
		if id, ok := CreatorFrom(ctx); ok {
			if err := r.Set(f.Name, id); err != nil {
				return err
			}
		}
	}
	return r.stampHandle(ctx)
}

// write 写主表：新记录 INSERT，否则按主键 UPDATE
func (r *Record) write(ctx context.Context) (bool, error) {
	if !r.dirty {
		return false, nil
	}
	pk, pkRaw := r.primaryRaw()
	wrote := false
	if r.phantom {
		assigns := r.insertAssignments()
		ins := NewInserter(r.model).Dialect(r.db.dialect).Values(assigns...)
		res := r.db.Exec(ctx, ins)
		if err := res.Err(); err != nil {
			return false, err
		}
		if pkRaw == nil {
			id, err := res.LastInsertId()
			if err != nil {
				return false, err
			}
			r.raw[pk.ColumnName] = id
			delete(r.converted, pk.Name)
			for _, name := range r.model.DependentRelationships(pk.Name) {
				if !r.assigned[name] {
					delete(r.related, name)
				}
			}
		}
		r.phantom = false
		r.isNew = true
		wrote = true
	} else if assigns := r.updateAssignments(); len(assigns) > 0 {
		upd := NewUpdater(r.model).Dialect(r.db.dialect).Set(assigns...).Where(C(pk.Name).EQ(pkRaw))
		if err := r.db.Exec(ctx, upd).Err(); err != nil {
			return false, err
		}
		r.updated = true
		wrote = true
	}
	r.dirty = false
	r.original = map[string]any{}
	return wrote, nil
}

// insertAssignments 没有设置过的字段：有默认值的用默认值，否则交给数据库
func (r *Record) insertAssignments() []Assignment {
	fields := r.model.StoredFields()
	res := make([]Assignment, 0, len(fields))
	for _, f := range fields {
		raw, ok := r.raw[f.ColumnName]
		if !ok && f.HasDefault() {
			if f.DefaultsToCurrentTimestamp() {
				continue
			}
			def, err := r.db.codec.Encode(f, f.Default)
			if err != nil || def == nil {
				continue
			}
			r.raw[f.ColumnName] = def
			delete(r.converted, f.Name)
			raw, ok = def, true
		}
		if !ok {
			continue
		}
		res = append(res, AssignField(f, raw))
	}
	return res
}

func (r *Record) updateAssignments() []Assignment {
	fields := r.model.StoredFields()
	res := make([]Assignment, 0, len(fields))
	for _, f := range fields {
		if f.Name == r.model.PrimaryKey {
			continue
		}
		res = append(res, AssignField(f, r.raw[f.ColumnName]))
	}
	return res
}

// snapshotAssignments 历史表里面一行的全部字段，包括主键
func (r *Record) snapshotAssignments() []Assignment {
	fields := r.model.StoredFields()
	res := make([]Assignment, 0, len(fields))
	for _, f := range fields {
		res = append(res, AssignField(f, r.raw[f.ColumnName]))
	}
	return res
}

// clearCache 删除按唯一字段缓存的这一行，新旧值都删
func (r *Record) clearCache(ctx context.Context) {
	if r.db.cache == nil || r.phantom {
		return
	}
	for _, f := range r.model.StoredFields() {
		if !f.Unique && !f.Primary {
			continue
		}
		keys := []any{r.raw[f.ColumnName]}
		if old, ok := r.original[f.Name]; ok {
			keys = append(keys, old)
		}
		for _, v := range keys {
			if v == nil {
				continue
			}
			if err := r.db.cache.Delete(ctx, CacheKey(r.model.TableName, f.ColumnName, v)); err != nil {
				r.db.logFunc("orm: record cache delete failed: %v", err)
			}
		}
	}
}

// Destroy deletes the row, after appending a history snapshot when the
// model versions on destroy. It reports whether a row was deleted.
func (r *Record) Destroy(ctx context.Context) (bool, error) {
	if r.history {
		return false, errs.NewErrReadOnlyRecord(r.model.Name)
	}
	if r.phantom {
		return false, nil
	}
	if err := r.beforeVersionedDestroy(ctx); err != nil {
		return false, err
	}
	r.clearCache(ctx)

	pk, pkRaw := r.primaryRaw()
	del := NewDeleter(r.model).Dialect(r.db.dialect).Where(C(pk.Name).EQ(pkRaw))
	n, err := r.db.Exec(ctx, del).RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		// 删掉之后再保存会重新插入
		r.phantom = true
		r.dirty = true
	}
	return n > 0, nil
}
