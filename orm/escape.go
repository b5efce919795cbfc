package orm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Escape 转义字符串字面量，规则和 mysql_real_escape_string 一致：
// 反斜杠、NUL、\n、\r、单双引号以及 \x1a 前面加反斜杠
func Escape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			sb.WriteString(`\0`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '"':
			sb.WriteString(`\"`)
		case '\x1a':
			sb.WriteString(`\Z`)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// EscapeAll escapes every member of ss.
func EscapeAll(ss []string) []string {
	res := make([]string, len(ss))
	for i, s := range ss {
		res[i] = Escape(s)
	}
	return res
}

// Literal renders val as a SQL literal: NULL, a bare number, 0/1 for
// booleans, or an escaped string in double quotes.
func Literal(val any) string {
	switch v := val.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return `"` + Escape(string(v)) + `"`
	case string:
		return `"` + Escape(v) + `"`
	case []string:
		return `"` + Escape(strings.Join(v, ",")) + `"`
	case time.Time:
		return `"` + v.Format("2006-01-02 15:04:05") + `"`
	default:
		return `"` + Escape(fmt.Sprint(v)) + `"`
	}
}
