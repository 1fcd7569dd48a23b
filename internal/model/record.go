package model

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Record is one row-level or aggregate JSON object from a dashboard payload.
// The field set is page-specific; accessors never fail.
type Record map[string]any

// Number returns the numeric value of field, or 0 when the field is missing,
// non-numeric or not finite. Numeric strings such as "12,5" are accepted.
func (r Record) Number(field string) float64 {
	v, ok := r[field]
	if !ok {
		return 0
	}
	return ToNumber(v)
}

// Has reports whether field is present.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Text returns field as a string. Numbers are formatted without exponent.
func (r Record) Text(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Record:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}

// ToNumber returns v as a finite float64. Every integer, unsigned and float
// kind is accepted, pointers are followed, and numeric strings such as
// "12,5" or "1 247" are parsed. Anything else, nil included, is 0.
func ToNumber(v any) float64 {
	f, _ := numberOf(v)
	return f
}

// numberOf is ToNumber that also reports whether v held a number.
func numberOf(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0, false
		}
		rv = rv.Elem()
	}

	var f float64
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		f = float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		f = rv.Float()
	case reflect.String:
		parsed, ok := parseNumber(rv.String())
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumber(v string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\u202f' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
