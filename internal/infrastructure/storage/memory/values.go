package memory

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"smartfilter/internal/domain/filter"
)

const dateLayout = "2006-01-02"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	dateLayout,
}

// indirect dereferences pointers; a nil pointer becomes nil.
func indirect(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func isNull(v any) bool {
	return indirect(v) == nil
}

// compareValues orders a stored value against a filter value using the stored
// value's type, the way a database casts a literal to the column type.
// false means the values are not comparable (NULL on either side included).
func compareValues(stored, value any) (int, bool) {
	stored, value = indirect(stored), indirect(value)
	if stored == nil || value == nil {
		return 0, false
	}

	switch s := stored.(type) {
	case time.Time:
		t, ok := toTime(value)
		if !ok {
			return 0, false
		}
		return s.Compare(t), true
	case bool:
		return compareBool(s, filter.ToBoolean(value)), true
	case string:
		if _, isString := value.(string); !isString {
			if d, ok := toDecimal(value); ok {
				if sd, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
					return sd.Cmp(d), true
				}
			}
			if t, ok := value.(time.Time); ok {
				if st, ok := toTime(s); ok {
					return st.Compare(t), true
				}
			}
		}
		return strings.Compare(s, fmt.Sprint(value)), true
	}

	if sd, ok := toDecimal(stored); ok {
		d, ok := toDecimal(value)
		if !ok {
			return 0, false
		}
		return sd.Cmp(d), true
	}
	return strings.Compare(fmt.Sprint(stored), fmt.Sprint(value)), true
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func fromUint(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// toDecimal converts numbers and numeric strings.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int8:
		return decimal.NewFromInt(int64(n)), true
	case int16:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return fromUint(uint64(n)), true
	case uint8:
		return decimal.NewFromInt(int64(n)), true
	case uint16:
		return decimal.NewFromInt(int64(n)), true
	case uint32:
		return decimal.NewFromInt(int64(n)), true
	case uint64:
		return fromUint(n), true
	case float32:
		if !finite(float64(n)) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(n), true
	case float64:
		if !finite(n) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(n), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func toTime(v any) (time.Time, bool) {
	switch t := indirect(v).(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// dateOf renders a filter value as YYYY-MM-DD when it parses as a time.
func dateOf(v any) string {
	if t, ok := toTime(v); ok {
		return t.Format(dateLayout)
	}
	return fmt.Sprint(v)
}

type dateParts struct {
	year, month, day int
}

func partsOf(t time.Time) dateParts {
	return dateParts{year: t.Year(), month: int(t.Month()), day: t.Day()}
}

func inList(stored any, values []any) bool {
	for _, v := range values {
		if c, ok := compareValues(stored, v); ok && c == 0 {
			return true
		}
	}
	return false
}

// between reports from <= stored <= to; ok is false when any side is not comparable.
func between(stored, from, to any) (in, ok bool) {
	lo, ok1 := compareValues(stored, from)
	hi, ok2 := compareValues(stored, to)
	if !ok1 || !ok2 {
		return false, false
	}
	return lo >= 0 && hi <= 0, true
}

// likePattern translates a SQL LIKE pattern (% and _ wildcards, backslash escape) into an anchored regexp.
func likePattern(pattern string, fold bool) *regexp.Regexp {
	var b strings.Builder
	if fold {
		b.WriteString("(?is)^")
	} else {
		b.WriteString("(?s)^")
	}

	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
