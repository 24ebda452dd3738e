package memory

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLikePattern(t *testing.T) {
	tests := []struct {
		pattern string
		fold    bool
		input   string
		want    bool
	}{
		{"%john%", true, "Bob Johnson", true},
		{"%john%", false, "Bob Johnson", false},
		{"J_hn", false, "John", true},
		{"J_hn", false, "Joohn", false},
		{"100\\%", false, "100%", true},
		{"100\\%", false, "1000", false},
		{"a.b", false, "axb", false},
		{"(x)%", false, "(x) y", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, likePattern(tt.pattern, tt.fold).MatchString(tt.input))
		})
	}
}

func TestCompareValues(t *testing.T) {
	day := time.Date(2023, 2, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		stored any
		value  any
		want   int
		ok     bool
	}{
		{"int vs int64", 30, int64(30), 0, true},
		{"int vs numeric string", 30, "25", 1, true},
		{"decimal vs float", decimal.NewFromInt(50000), 60000.0, -1, true},
		{"string vs string", "abc", "abd", -1, true},
		{"numeric string vs int", "10", int64(9), 1, true},
		{"bool vs loose bool", true, "yes", 0, true},
		{"time vs date string", day, "2023-01-15", 1, true},
		{"pointer time", &day, "2023-02-01 10:00:00", 0, true},
		{"null stored", nil, 1, 0, false},
		{"nil pointer", (*time.Time)(nil), "2023-01-01", 0, false},
		{"int vs garbage", 1, "x", 0, false},
		{"uint8 vs int64", uint8(7), int64(7), 0, true},
		{"int vs uint8", 3, uint8(200), -1, true},
		{"max uint64 vs int64", ^uint64(0), int64(math.MaxInt64), 1, true},
		{"int vs nan", 1, math.NaN(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := compareValues(tt.stored, tt.value)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBetween(t *testing.T) {
	in, ok := between(5, int64(1), int64(5))
	assert.True(t, ok)
	assert.True(t, in)

	in, ok = between(6, 1, 5)
	assert.True(t, ok)
	assert.False(t, in)

	_, ok = between(nil, 1, 5)
	assert.False(t, ok)
}
