package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSlice(t *testing.T) {
	got, ok := ToSlice([]int{1, 2, 3})
	assert.True(t, ok)
	assert.Equal(t, []interface{}{1, 2, 3}, got)

	got, ok = ToSlice([]interface{}{"a", 2})
	assert.True(t, ok)
	assert.Equal(t, []interface{}{"a", 2}, got)

	got, ok = ToSlice([2]string{"x", "y"})
	assert.True(t, ok)
	assert.Equal(t, []interface{}{"x", "y"}, got)

	_, ok = ToSlice([]byte("abc"))
	assert.False(t, ok)
	type blob []byte
	_, ok = ToSlice(blob(`{"a":1}`))
	assert.False(t, ok)
	_, ok = ToSlice(42)
	assert.False(t, ok)
	_, ok = ToSlice(nil)
	assert.False(t, ok)
}

func TestIsNumeric(t *testing.T) {
	for _, v := range []interface{}{1, int64(2), uint8(3), 1.5, float32(2.5), "10", " 3.25 ", "-4", "+.5", "1e3", "2.5E-2", "7."} {
		assert.True(t, IsNumeric(v), "%v", v)
	}
	for _, v := range []interface{}{
		"abc", "", nil, true, []int{1},
		"NaN", "nan", "Inf", "-Infinity", "0x1p-2", "0x10", "1_000", "1e", ".", "1 2",
		math.NaN(), math.Inf(1), float32(math.Inf(-1)),
	} {
		assert.False(t, IsNumeric(v), "%v", v)
	}
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]interface{}{"c": 1, "a": 2, "b": 3}))
}

func TestToInt64(t *testing.T) {
	cases := map[string]struct {
		in   interface{}
		want int64
		ok   bool
	}{
		"int64":   {int64(7), 7, true},
		"uint":    {uint(8), 8, true},
		"float":   {9.9, 9, true},
		"string":  {"12", 12, true},
		"bytes":   {[]byte("13"), 13, true},
		"decimal": {"4.0", 4, true},
		"bool":    {true, 1, true},
		"garbage": {"x", 0, false},
		"nil":     {nil, 0, false},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ToInt64(c.in)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "5", FormatNumber(5))
	assert.Equal(t, "2.5", FormatNumber(2.5))
	assert.Equal(t, "-3", FormatNumber(int8(-3)))
	assert.Equal(t, "1.25", FormatNumber(" 1.25"))
}
