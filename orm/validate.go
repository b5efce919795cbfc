package orm

import (
	"fmt"
	"maps"
	"strconv"
	"unicode/utf8"

	"github.com/coderi421/recordkit/orm/model"
)

// Validate checks the record without touching the database. With deep
// set, resolved related records that are dirty are validated too and
// their messages are stored under the relationship name.
func (r *Record) Validate(deep bool) bool {
	return r.validate(deep, nil)
}

// validate skip 里的字段不检查必填，它们会在保存的时候由关联关系填上
func (r *Record) validate(deep bool, skip map[string]bool) bool {
	res := map[string]any{}
	skip = r.parentKeys(skip)
	for _, f := range r.model.StoredFields() {
		if skip[f.Name] {
			continue
		}
		if msg := r.checkField(f); msg != "" {
			res[f.Name] = msg
		}
	}
	for _, v := range r.model.Validators {
		for field, msg := range v.Validate(r) {
			if _, ok := res[field]; !ok {
				res[field] = msg
			}
		}
	}
	if deep {
		r.validateRelated(res)
	}
	r.validationErrors = res
	r.valid = len(res) == 0
	return r.valid
}

// checkField 内置的检查：必填以及长度
func (r *Record) checkField(f *model.Field) string {
	raw := r.raw[f.ColumnName]
	if raw == nil {
		if !f.NotNull || f.HasDefault() || f.AutoIncrement {
			return ""
		}
		switch f.Name {
		case model.FieldClass, model.FieldCreated, r.model.HandleField:
			// 保存的时候会自动填上
			return ""
		}
		return "is required"
	}
	if f.Length <= 0 {
		return ""
	}
	switch f.Type {
	case model.KindString, model.KindVarchar, model.KindChar, model.KindClob:
		if s, ok := raw.(string); ok && utf8.RuneCountInString(s) > f.Length {
			return fmt.Sprintf("is longer than %d characters", f.Length)
		}
	}
	return ""
}

func (r *Record) validateRelated(res map[string]any) {
	for _, rel := range r.model.Relationships {
		val, ok := r.related[rel.Name]
		if !ok || rel.Kind == model.History {
			continue
		}
		switch v := val.(type) {
		case *Record:
			if v == nil || !v.dirty || v.saving {
				continue
			}
			if !v.validate(true, nil) {
				res[rel.Name] = v.validationErrors
			}
		case []*Record:
			skip := r.childKeys(rel)
			errs := map[string]any{}
			for i, child := range v {
				if !child.dirty || child.saving {
					continue
				}
				if !child.validate(true, skip) {
					errs[strconv.Itoa(i)] = child.validationErrors
				}
			}
			if len(errs) > 0 {
				res[rel.Name] = errs
			}
		}
	}
}

// childKeys 子记录里面由父记录保存时填写的字段
func (r *Record) childKeys(rel *model.Relationship) map[string]bool {
	switch rel.Kind {
	case model.OneMany:
		return map[string]bool{rel.Foreign: true}
	case model.ContextChildren:
		return map[string]bool{rel.Foreign: true, rel.ClassField: true}
	}
	return nil
}

// parentKeys 还没保存的父记录的主键，要等父记录保存之后才能填到本地字段
func (r *Record) parentKeys(skip map[string]bool) map[string]bool {
	skip = maps.Clone(skip)
	for _, rel := range r.model.Relationships {
		parent, ok := r.related[rel.Name].(*Record)
		if !ok || parent == nil || !parent.phantom {
			continue
		}
		if skip == nil {
			skip = map[string]bool{}
		}
		switch rel.Kind {
		case model.OneOne:
			skip[rel.Local] = true
		case model.ContextParent:
			skip[rel.Local] = true
			skip[rel.ClassField] = true
		}
	}
	return skip
}
