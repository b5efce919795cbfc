package orm

import (
	"context"

	"github.com/coderi421/recordkit/orm/model"
)

// beforeVersionedSave 脏记录保存之前刷新 Created，并且记住这一次要写历史表
func (r *Record) beforeVersionedSave() {
	if !r.model.VersionOnSave || !r.dirty {
		return
	}
	r.versionDirty = true
	r.touchCreated()
}

func (r *Record) touchCreated() {
	f, ok := r.model.Field(model.FieldCreated)
	if !ok {
		return
	}
	raw, err := r.db.codec.Encode(f, r.db.now())
	if err != nil || sameRaw(r.raw[f.ColumnName], raw) {
		return
	}
	r.setRaw(f, raw)
}

// afterVersionedSave 主表写成功之后，往历史表追加一行快照
func (r *Record) afterVersionedSave(ctx context.Context, wrote bool) error {
	if !r.versionDirty {
		return nil
	}
	r.versionDirty = false
	if !wrote {
		return nil
	}
	return r.appendHistory(ctx)
}

// beforeVersionedDestroy 删除之前先把当前的值写进历史表
func (r *Record) beforeVersionedDestroy(ctx context.Context) error {
	if !r.model.VersionOnDestroy {
		return nil
	}
	r.touchCreated()
	return r.appendHistory(ctx)
}

// appendHistory 历史表只会 INSERT，不会 UPDATE 或者 DELETE
func (r *Record) appendHistory(ctx context.Context) error {
	ins := NewInserter(r.model).
		Dialect(r.db.dialect).
		Table(r.model.HistoryTableName).
		Values(r.snapshotAssignments()...)
	return r.db.Exec(ctx, ins).Err()
}
