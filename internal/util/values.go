// Package util provides small reflection and value-conversion helpers shared by the
// query builder and its database/sql connection.
package util

import (
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ToSlice flattens any slice or array (except []byte) into []interface{}.
// The second return value is false when v is not a list.
func ToSlice(v interface{}) ([]interface{}, bool) {
	switch vs := v.(type) {
	case nil:
		return nil, false
	case []interface{}:
		return vs, true
	case []byte:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	// Named byte slices such as json.RawMessage are single values.
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}

	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

var decimalRe = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// IsNumeric reports whether v is a finite Go number or a string holding a
// decimal literal. NaN, infinities and hex floats are rejected since they
// cannot be inlined as SQL.
func IsNumeric(v interface{}) bool {
	switch x := v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
	case float64:
		return !math.IsNaN(x) && !math.IsInf(x, 0)
	case string:
		return decimalRe.MatchString(strings.TrimSpace(x))
	}
	return false
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToInt64 converts driver values (integers, floats, numeric strings and bytes) to int64.
func ToInt64(v interface{}) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return int64(rv.Float()), true
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	}

	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return 0, false
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// FormatNumber renders a numeric value as SQL literal text.
func FormatNumber(v interface{}) string {
	switch x := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return strings.TrimSpace(x)
	}
	if n, ok := ToInt64(v); ok {
		return strconv.FormatInt(n, 10)
	}
	return "0"
}
