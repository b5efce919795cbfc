package valuer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/coderi421/recordkit/orm/model"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"

	zeroTimestamp = "0000-00-00 00:00:00"
	zeroDate      = "0000-00-00"
)

var (
	// 2024-03-05, 2024/3/5 13:04, 2024.03.05T13:04:05
	isoPattern = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})(?:[T\s]+(\d{1,2})[:.](\d{1,2})(?:[:.](\d{1,2}))?)?$`)
	// 03/05/2024, 3-5-2024 13:04
	usPattern    = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})(?:[T\s]+(\d{1,2})[:.](\d{1,2})(?:[:.](\d{1,2}))?)?$`)
	unixPattern  = regexp.MustCompile(`^-?\d+$`)
	zeroDatePart = regexp.MustCompile(`^0000-00-00`)
)

// parseTime understands unix seconds, time.Time, a handful of punctuation
// variants of ISO and US dates, and whatever cast can make of the rest.
func (c Codec) parseTime(val any) (time.Time, bool) {
	loc := c.loc()
	switch v := val.(type) {
	case time.Time:
		return v.In(loc), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0).In(loc), true
	case float32, float64:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(int64(n), 0).In(loc), true
	case map[string]any:
		return dateFromParts(fmt.Sprint(v["yyyy"]), fmt.Sprint(v["mm"]), fmt.Sprint(v["dd"]), loc)
	case map[string]string:
		return dateFromParts(v["yyyy"], v["mm"], v["dd"], loc)
	}
	s, ok := toString(val)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" || zeroDatePart.MatchString(s) {
		return time.Time{}, false
	}
	if unixPattern.MatchString(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0).In(loc), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), true
	}
	if m := isoPattern.FindStringSubmatch(s); m != nil {
		return clock(m[1], m[2], m[3], m[4], m[5], m[6], loc)
	}
	if m := usPattern.FindStringSubmatch(s); m != nil {
		return clock(m[3], m[1], m[2], m[4], m[5], m[6], loc)
	}
	t, err := cast.ToTimeInDefaultLocationE(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

func dateFromParts(yyyy, mm, dd string, loc *time.Location) (time.Time, bool) {
	return clock(yyyy, mm, dd, "", "", "", loc)
}

// clock builds a time from its textual parts and rejects dates that
// time.Date would silently normalise, such as February 31st.
func clock(yyyy, mm, dd, h, mi, sec string, loc *time.Location) (time.Time, bool) {
	parts := make([]int, 6)
	for i, p := range []string{yyyy, mm, dd, h, mi, sec} {
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, false
		}
		parts[i] = n
	}
	t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, loc)
	if t.Year() != parts[0] || int(t.Month()) != parts[1] || t.Day() != parts[2] ||
		t.Hour() != parts[3] || t.Minute() != parts[4] || t.Second() != parts[5] {
		return time.Time{}, false
	}
	return t, true
}

func (c Codec) encodeDate(f *model.Field, val any) (any, error) {
	if s, ok := val.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, ok := c.parseTime(val)
	if !ok {
		return c.invalid(f, val)
	}
	return t.Format(DateLayout), nil
}

func (c Codec) encodeTimestamp(f *model.Field, val any) (any, error) {
	if s, ok := val.(string); ok {
		switch {
		case strings.EqualFold(strings.TrimSpace(s), model.CurrentTimestamp):
			return model.CurrentTimestamp, nil
		case strings.TrimSpace(s) == "":
			return nil, nil
		}
	}
	t, ok := c.parseTime(val)
	if !ok {
		return c.invalid(f, val)
	}
	return t.Format(TimestampLayout), nil
}

// decodeTimestamp reads a stored timestamp back as unix seconds.
func (c Codec) decodeTimestamp(raw any) any {
	switch v := raw.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	s, ok := toString(raw)
	if !ok || s == "" || s == zeroTimestamp || s == model.CurrentTimestamp {
		return nil
	}
	if unixPattern.MatchString(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil
		}
		return n
	}
	t, err := time.ParseInLocation(TimestampLayout, s, c.loc())
	if err != nil {
		tt, ok := c.parseTime(s)
		if !ok {
			return nil
		}
		t = tt
	}
	return t.Unix()
}

// Now renders t the way timestamps are stored.
func (c Codec) Now(t time.Time) string {
	return t.In(c.loc()).Format(TimestampLayout)
}
