package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatValue renders v in the canonical string form used for change
// detection, audit values and key lookups. ok is false for nil.
//
// Numbers render without a trailing fraction when integral, so 5, 5.0,
// int64(5) and "5" all compare equal.
func FormatValue(v any) (s string, ok bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case []byte:
		return string(t), true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.FormatInt(int64(t), 10), true
	case int8:
		return strconv.FormatInt(int64(t), 10), true
	case int16:
		return strconv.FormatInt(int64(t), 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case uint8:
		return strconv.FormatUint(uint64(t), 10), true
	case uint16:
		return strconv.FormatUint(uint64(t), 10), true
	case uint32:
		return strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		if f, err := t.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return t.String(), true
	case time.Time:
		return t.Format(time.RFC3339Nano), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

// ValuesEqual compares two values by their canonical string form.
// nil only equals nil.
func ValuesEqual(a, b any) bool {
	as, aok := FormatValue(a)
	bs, bok := FormatValue(b)
	if aok != bok {
		return false
	}
	return as == bs
}

// KeyString is the lookup key of a primary key value
func KeyString(v any) string {
	s, _ := FormatValue(v)
	return s
}

// IsEmptyValue reports whether a column value carries no data (nil or "")
func IsEmptyValue(v any) bool {
	s, ok := FormatValue(v)
	return !ok || s == ""
}

// IsBlankKey reports whether a primary key value is missing (nil or whitespace)
func IsBlankKey(v any) bool {
	s, ok := FormatValue(v)
	return !ok || strings.TrimSpace(s) == ""
}

// valuePtr converts a value to the nullable text stored in the audit log
func valuePtr(v any) *string {
	s, ok := FormatValue(v)
	if !ok {
		return nil
	}
	return &s
}
