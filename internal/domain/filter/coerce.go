package filter

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

var truthy = map[string]struct{}{"1": {}, "true": {}, "yes": {}, "on": {}}

// Coerce converts a raw filter value to the canonical representation of t.
// String values used with Like are wrapped as %value%. Coerce never fails:
// unparsable numbers become 0 and unknown types pass through.
func Coerce(value any, t Type, op Operator, delimiter string) any {
	v := coerceRaw(value, t, delimiter)
	if t.canonical() == TypeString && op == Like && !isList(v) {
		return "%" + fmt.Sprint(v) + "%"
	}
	return v
}

// coerceRaw applies the type conversion without operator-specific shaping.
// Sequences are converted element-wise for scalar types.
func coerceRaw(value any, t Type, delimiter string) any {
	switch t.canonical() {
	case TypeInteger:
		return mapScalar(value, func(v any) any { return ToInteger(v) })
	case TypeFloat:
		return mapScalar(value, func(v any) any { return ToFloat(v) })
	case TypeBoolean:
		return mapScalar(value, func(v any) any { return ToBoolean(v) })
	case TypeArray:
		if isList(value) {
			return value
		}
		if delimiter == "" {
			delimiter = ","
		}
		return strings.Split(fmt.Sprint(value), delimiter)
	default:
		// string, date and unknown types are passed through
		return value
	}
}

func mapScalar(value any, fn func(any) any) any {
	if !isList(value) {
		return fn(value)
	}
	items := ToSlice(value)
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}

// ToInteger converts v to int64; anything unparsable yields 0.
func ToInteger(v any) int64 {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		return clampUint(uint64(n))
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return clampUint(n)
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, ok := parseNumber(s); ok {
			return floatToInt(f)
		}
		return 0
	default:
		return ToInteger(fmt.Sprint(v))
	}
}

// ToFloat converts v to float64; anything unparsable yields 0.0.
func ToFloat(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return float64(ToInteger(n))
	case string:
		f, _ := parseNumber(strings.TrimSpace(n))
		return f
	default:
		return ToFloat(fmt.Sprint(v))
	}
}

// ToBoolean accepts native booleans, treats numbers as non-zero tests and
// strings as membership in {1,true,yes,on} (case-insensitive).
func ToBoolean(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		s := strings.ToLower(strings.TrimSpace(b))
		if f, ok := parseNumber(s); ok {
			return f != 0
		}
		_, ok := truthy[s]
		return ok
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return ToFloat(b) != 0
	default:
		return false
	}
}

// parseNumber parses a finite decimal number. NaN, infinities and hex
// floats are rejected.
func parseNumber(s string) (float64, bool) {
	if strings.ContainsAny(s, "xX") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// floatToInt truncates f, clamping to the int64 range. NaN and infinities yield 0.
func floatToInt(f float64) int64 {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

func clampUint(n uint64) int64 {
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}

// ToSlice turns any slice or array into []any; scalars become a one-element slice.
func ToSlice(v any) []any {
	switch s := v.(type) {
	case nil:
		return nil
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if !isList(v) {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// isList reports whether v is a slice or array. Byte slices and byte arrays
// (raw bytes, UUIDs) count as scalars.
func isList(v any) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
		return false
	}
	return t.Elem().Kind() != reflect.Uint8
}
