package model

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Validator checks a record without touching the database and reports
// problems keyed by field name. An empty result means valid.
type Validator interface {
	Validate(r Record) map[string]string
}

type ValidatorFunc func(r Record) map[string]string

func (f ValidatorFunc) Validate(r Record) map[string]string {
	return f(r)
}

// Required rejects nil and empty string values.
func Required(fields ...string) Validator {
	return ValidatorFunc(func(r Record) map[string]string {
		res := map[string]string{}
		for _, name := range fields {
			val, err := r.Get(name)
			if err != nil {
				res[name] = err.Error()
				continue
			}
			if val == nil || val == "" {
				res[name] = "is required"
			}
		}
		return res
	})
}

// MaxLength limits the number of characters of a string field.
func MaxLength(field string, n int) Validator {
	return ValidatorFunc(func(r Record) map[string]string {
		val, err := r.Get(field)
		if err != nil {
			return map[string]string{field: err.Error()}
		}
		if s, ok := val.(string); ok && utf8.RuneCountInString(s) > n {
			return map[string]string{field: fmt.Sprintf("must be at most %d characters", n)}
		}
		return nil
	})
}

// Pattern requires a non-empty string field to match re.
func Pattern(field string, re *regexp.Regexp, msg string) Validator {
	return ValidatorFunc(func(r Record) map[string]string {
		val, err := r.Get(field)
		if err != nil {
			return map[string]string{field: err.Error()}
		}
		s, ok := val.(string)
		if !ok || s == "" || re.MatchString(s) {
			return nil
		}
		return map[string]string{field: msg}
	})
}
