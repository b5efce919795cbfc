package model

import "context"

// Record is the view of a record instance that hooks and validators get.
type Record interface {
	Model() *Model
	Get(field string) (any, error)
	Set(field string, val any) error
}

type HookFunc func(ctx context.Context, r Record) error

// Hook 保存前后执行的回调，按名字去重
type Hook struct {
	Name string
	Fn   HookFunc
}

// mergeHooks keeps the position of the first declaration of a name and the
// function of the last one.
func mergeHooks(dst []Hook, src []Hook) []Hook {
	for _, h := range src {
		replaced := false
		for i := range dst {
			if dst[i].Name == h.Name {
				dst[i].Fn = h.Fn
				replaced = true
				break
			}
		}
		if !replaced {
			dst = append(dst, h)
		}
	}
	return dst
}
