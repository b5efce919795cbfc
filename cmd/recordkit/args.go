package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coderi421/recordkit/orm"
	"github.com/coderi421/recordkit/orm/model"
)

// nullValue 在 k=v 里代表 NULL
const nullValue = "null"

// parseAssignments 解析 Field=value 形式的参数，同一个字段出现多次的时候以最后一次为准
func parseAssignments(args []string) (map[string]any, error) {
	res := make(map[string]any, len(args))
	for _, arg := range args {
		name, val, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q, want Field=value", arg)
		}
		if val == nullValue {
			res[name] = nil
			continue
		}
		res[name] = val
	}
	return res, nil
}

// parseOrders 解析 --order，字段名前面加 - 表示降序
func parseOrders(specs []string) []model.Order {
	res := make([]model.Order, 0, len(specs))
	for _, s := range specs {
		if field, ok := strings.CutPrefix(s, "-"); ok {
			res = append(res, model.Desc(field))
			continue
		}
		res = append(res, model.Asc(s))
	}
	return res
}

// lookup 数字先按主键找，找不到再按 handle 找
func lookup(ctx context.Context, f *orm.Finder, key string) (*orm.Record, error) {
	hasHandle := f.Model().HandleField != ""
	if _, err := strconv.ParseUint(key, 10, 64); err == nil {
		rec, err := f.GetByID(ctx, key)
		if err == nil || !hasHandle || !errors.Is(err, orm.ErrNoRows) {
			return rec, err
		}
	}
	if !hasHandle {
		return nil, fmt.Errorf("%s has no handle, look it up by ID", f.Model().Name)
	}
	return f.GetByHandle(ctx, key)
}
