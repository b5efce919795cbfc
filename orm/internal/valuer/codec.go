package valuer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gotomicro/ekit/slice"
	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"

	"github.com/coderi421/recordkit/orm/internal/errs"
	"github.com/coderi421/recordkit/orm/model"
)

// Mode 取值转换的严格程度
type Mode uint8

const (
	// Lenient 非法的输入降级成 nil 或者尽力解析的结果
	Lenient Mode = iota
	// Strict 非法的输入返回校验错误
	Strict
)

// Codec converts between the values callers work with and the raw values
// stored in a record, one rule per field kind. Raw values are always
// driver friendly: nil, string, int64, float64 or []byte.
type Codec struct {
	Mode Mode
	// Location is the zone timestamps and dates are stored in. nil means UTC.
	Location *time.Location
}

func New(mode Mode, loc *time.Location) Codec {
	return Codec{Mode: mode, Location: loc}
}

func (c Codec) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// invalid degrades to nil in lenient mode.
func (c Codec) invalid(f *model.Field, val any) (any, error) {
	if c.Mode == Strict {
		return nil, errs.NewErrInvalidValue(f.Name, val)
	}
	return nil, nil
}

// Encode converts val into the raw value stored for f.
func (c Codec) Encode(f *model.Field, val any) (any, error) {
	if val == nil {
		return nil, nil
	}
	switch f.Type {
	case model.KindPassword:
		s, ok := toString(val)
		if !ok {
			return c.invalid(f, val)
		}
		return s, nil
	case model.KindInteger, model.KindInt, model.KindUint:
		return c.encodeInt(f, val)
	case model.KindFloat:
		return c.encodeFloat(f, val)
	case model.KindDecimal:
		return c.encodeDecimal(f, val)
	case model.KindBoolean:
		return c.encodeBool(f, val)
	case model.KindEnum:
		return c.encodeEnum(f, val)
	case model.KindSet, model.KindList:
		return c.encodeList(f, val)
	case model.KindDate:
		return c.encodeDate(f, val)
	case model.KindTimestamp:
		return c.encodeTimestamp(f, val)
	case model.KindSerialized, model.KindJSON:
		return c.encodeJSON(f, val)
	case model.KindBinary, model.KindBlob:
		switch v := val.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}
		return c.invalid(f, val)
	case model.KindUUID:
		return c.encodeUUID(f, val)
	default:
		return c.encodeString(f, val)
	}
}

func (c Codec) encodeString(f *model.Field, val any) (any, error) {
	s, ok := toString(val)
	if !ok {
		if c.Mode == Strict {
			return nil, errs.NewErrInvalidValue(f.Name, val)
		}
		s = fmt.Sprint(val)
	}
	s = norm.NFC.String(strings.ToValidUTF8(s, ""))
	if s == "" && f.BlankIsNull {
		return nil, nil
	}
	return s, nil
}

// blank returns the value stored for an empty input.
func blank(f *model.Field, notNullValue any) any {
	if f.NotNull {
		return notNullValue
	}
	return nil
}

func (c Codec) encodeInt(f *model.Field, val any) (any, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	}
	s, ok := toString(val)
	if !ok {
		return c.invalid(f, val)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return blank(f, int64(0)), nil
	}
	digits := stripInt(s)
	if c.Mode == Strict && digits != s {
		return nil, errs.NewErrInvalidValue(f.Name, val)
	}
	if digits == "" || digits == "-" {
		if c.Mode == Strict {
			return nil, errs.NewErrInvalidValue(f.Name, val)
		}
		return blank(f, int64(0)), nil
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return c.invalid(f, val)
	}
	return n, nil
}

// stripInt keeps the digits and a leading minus sign.
func stripInt(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' || r == '-' && i == 0 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func (c Codec) encodeFloat(f *model.Field, val any) (any, error) {
	if s, ok := val.(string); ok && strings.TrimSpace(s) == "" {
		return blank(f, float64(0)), nil
	}
	n, err := cast.ToFloat64E(val)
	if err != nil {
		return c.invalid(f, val)
	}
	return n, nil
}

func (c Codec) encodeDecimal(f *model.Field, val any) (any, error) {
	var s string
	switch v := val.(type) {
	case float32:
		s = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		str, ok := toString(val)
		if !ok {
			n, err := cast.ToInt64E(val)
			if err != nil {
				return c.invalid(f, val)
			}
			str = strconv.FormatInt(n, 10)
		}
		s = strings.TrimSpace(str)
	}
	if s == "" {
		return blank(f, "0"), nil
	}
	stripped := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == '-' || r == '.' {
			return r
		}
		return -1
	}, s)
	if stripped == "" {
		return c.invalid(f, val)
	}
	if c.Mode == Strict {
		if _, err := strconv.ParseFloat(stripped, 64); err != nil || stripped != s {
			return nil, errs.NewErrInvalidValue(f.Name, val)
		}
	}
	return stripped, nil
}

var (
	truthy = []string{"1", "true", "t", "yes", "y", "on"}
	falsy  = []string{"", "0", "false", "f", "no", "n", "off"}
)

func (c Codec) encodeBool(f *model.Field, val any) (any, error) {
	if s, ok := toString(val); ok {
		s = strings.ToLower(strings.TrimSpace(s))
		switch {
		case slice.Contains(truthy, s):
			return int64(1), nil
		case slice.Contains(falsy, s):
			return int64(0), nil
		case c.Mode == Strict:
			return nil, errs.NewErrInvalidValue(f.Name, val)
		default:
			return int64(1), nil
		}
	}
	b, err := cast.ToBoolE(val)
	if err != nil {
		return c.invalid(f, val)
	}
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

func (c Codec) encodeEnum(f *model.Field, val any) (any, error) {
	s, ok := toString(val)
	if !ok {
		s = fmt.Sprint(val)
	}
	if s == "" && !f.NotNull {
		return nil, nil
	}
	if slice.Contains(f.Values, s) {
		return s, nil
	}
	return c.invalid(f, val)
}

func (c Codec) encodeList(f *model.Field, val any) (any, error) {
	var members []string
	switch v := val.(type) {
	case []string:
		members = v
	case []any:
		members = make([]string, 0, len(v))
		for _, m := range v {
			members = append(members, fmt.Sprint(m))
		}
	default:
		s, ok := toString(val)
		if !ok {
			return c.invalid(f, val)
		}
		if s == "" {
			if f.BlankIsNull {
				return nil, nil
			}
			return "", nil
		}
		members = strings.Split(s, delimiter(f))
	}
	if f.Type == model.KindSet && c.Mode == Strict && len(f.Values) > 0 {
		for _, m := range members {
			if !slice.Contains(f.Values, m) {
				return nil, errs.NewErrInvalidValue(f.Name, val)
			}
		}
	}
	joined := strings.Join(members, delimiter(f))
	if joined == "" && f.BlankIsNull {
		return nil, nil
	}
	return joined, nil
}

func delimiter(f *model.Field) string {
	if f.Delimiter == "" {
		return model.DefaultDelimiter
	}
	return f.Delimiter
}

func (c Codec) encodeJSON(f *model.Field, val any) (any, error) {
	if raw, ok := val.(json.RawMessage); ok {
		return string(raw), nil
	}
	data, err := json.Marshal(val)
	if err != nil {
		return c.invalid(f, val)
	}
	return string(data), nil
}

func (c Codec) encodeUUID(f *model.Field, val any) (any, error) {
	switch v := val.(type) {
	case uuid.UUID:
		return v.String(), nil
	case [16]byte:
		return uuid.UUID(v).String(), nil
	}
	s, ok := toString(val)
	if !ok {
		return c.invalid(f, val)
	}
	if strings.TrimSpace(s) == "" {
		return blank(f, ""), nil
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return c.invalid(f, val)
	}
	return id.String(), nil
}

// Decode converts a raw stored value into the value callers read for f.
// Malformed raw values decode to nil.
func (c Codec) Decode(f *model.Field, raw any) any {
	raw = c.Normalize(f, raw)
	if raw == nil {
		return nil
	}
	switch f.Type {
	case model.KindInteger, model.KindInt, model.KindUint:
		if n, ok := raw.(int64); ok {
			return n
		}
		n, err := cast.ToInt64E(raw)
		if err != nil {
			return nil
		}
		return n
	case model.KindFloat:
		n, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil
		}
		return n
	case model.KindBoolean:
		s, _ := toString(raw)
		if s != "" {
			return !slice.Contains(falsy, strings.ToLower(s))
		}
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return nil
		}
		return b
	case model.KindSet, model.KindList:
		s, _ := toString(raw)
		if s == "" {
			return []string{}
		}
		return strings.Split(s, delimiter(f))
	case model.KindDate:
		s, _ := toString(raw)
		if s == "" || s == zeroDate {
			return nil
		}
		return s
	case model.KindTimestamp:
		return c.decodeTimestamp(raw)
	case model.KindSerialized, model.KindJSON:
		s, _ := toString(raw)
		var res any
		if err := json.Unmarshal([]byte(s), &res); err != nil {
			return nil
		}
		return res
	case model.KindBinary, model.KindBlob:
		if b, ok := raw.([]byte); ok {
			return b
		}
		s, _ := toString(raw)
		return []byte(s)
	default:
		s, ok := toString(raw)
		if !ok {
			return fmt.Sprint(raw)
		}
		return s
	}
}

// Normalize converts a value read from a driver or a cache into its raw
// storage form for f.
func (c Codec) Normalize(f *model.Field, val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case []byte:
		if f.Type == model.KindBinary || f.Type == model.KindBlob {
			return v
		}
		return string(v)
	case time.Time:
		// 保留墙上时间，驱动按 UTC 解析出来的时间不做时区转换
		if f.Type == model.KindDate {
			return v.Format(DateLayout)
		}
		return v.Format(TimestampLayout)
	case json.Number:
		switch {
		case f.Type.IsInteger(), f.Type == model.KindBoolean:
			if n, err := v.Int64(); err == nil {
				return n
			}
		case f.Type == model.KindFloat:
			if n, err := v.Float64(); err == nil {
				return n
			}
		}
		return v.String()
	case bool:
		if v {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		if f.Type.IsInteger() && v == float64(int64(v)) {
			return int64(v)
		}
		return v
	default:
		return val
	}
}

func toString(val any) (string, bool) {
	switch v := val.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case json.Number:
		return v.String(), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
