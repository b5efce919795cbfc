package orm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxHandleAttempts 生成 handle 的时候最多尝试多少个后缀
const maxHandleAttempts = 100

// stampHandle 空的 handle 从来源字段生成，重复的时候加 -2、-3 后缀
// 没有来源字段的时候使用 uuid
func (r *Record) stampHandle(ctx context.Context) error {
	m := r.model
	if m.HandleField == "" {
		return nil
	}
	cur, err := r.Get(m.HandleField)
	if err != nil {
		return err
	}
	if s, _ := cur.(string); s != "" {
		return nil
	}
	if m.HandleSource == "" {
		return r.Set(m.HandleField, uuid.NewString())
	}
	src, err := r.Get(m.HandleSource)
	if err != nil {
		return err
	}
	base := Slug(fmt.Sprint(src))
	if src == nil || base == "" {
		base = strings.ToLower(m.ShortName)
	}
	for i := 1; i <= maxHandleAttempts; i++ {
		handle := base
		if i > 1 {
			handle = fmt.Sprintf("%s-%d", base, i)
		}
		taken, err := r.handleTaken(ctx, handle)
		if err != nil {
			return err
		}
		if !taken {
			return r.Set(m.HandleField, handle)
		}
	}
	return r.Set(m.HandleField, base+"-"+uuid.NewString())
}

func (r *Record) handleTaken(ctx context.Context, handle string) (bool, error) {
	f := r.model.FieldMap[r.model.HandleField]
	s := NewSelector(r.model).Dialect(r.db.dialect).
		Select(C(r.model.PrimaryKey)).
		Where(C(f.Name).EQ(handle)).
		Limit(1)
	_, err := r.db.OneValue(ctx, s)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNoRows), errors.Is(err, ErrSchemaMissing):
		return false, nil
	default:
		return false, err
	}
}

var slugFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug lowercases s, drops accents and joins the remaining letter and
// digit runs with "-".
func Slug(s string) string {
	folded, _, err := transform.String(slugFolder, s)
	if err != nil {
		folded = s
	}
	var sb strings.Builder
	dash := false
	for _, c := range strings.ToLower(folded) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			dash = false
			sb.WriteRune(c)
			continue
		}
		dash = true
	}
	return sb.String()
}
