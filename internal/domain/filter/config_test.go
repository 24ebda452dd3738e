package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartfilter/internal/core/apperror"
)

func TestResolveConfig(t *testing.T) {
	tests := []struct {
		name   string
		layers []Options
		want   Config
	}{
		{
			name: "defaults",
			want: Config{Deep: true, MaxRelationDepth: 2},
		},
		{
			name:   "later layer wins",
			layers: []Options{{OptMaxRelationDepth: 5}, {OptMaxRelationDepth: "1"}},
			want:   Config{Deep: true, MaxRelationDepth: 1},
		},
		{
			name:   "loose booleans",
			layers: []Options{{OptDeep: "no", OptCaseSensitive: "yes", OptStrictMode: 1}},
			want:   Config{Deep: false, MaxRelationDepth: 2, CaseSensitive: true, StrictMode: true},
		},
		{
			name:   "unknown keys ignored",
			layers: []Options{{"colour": "red"}},
			want:   Config{Deep: true, MaxRelationDepth: 2},
		},
		{
			name:   "negative depth clamped",
			layers: []Options{{OptMaxRelationDepth: -3}},
			want:   Config{Deep: true, MaxRelationDepth: 0},
		},
		{
			name:   "nil layers skipped",
			layers: []Options{nil, {OptStrictMode: true}, nil},
			want:   Config{Deep: true, MaxRelationDepth: 2, StrictMode: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveConfig(DefaultConfig(), tt.layers...))
		})
	}
}

func TestConfig_Descend(t *testing.T) {
	cfg := Config{Deep: true, MaxRelationDepth: 3, StrictMode: true}

	next := cfg.descend(1)
	assert.Equal(t, 1, next.MaxRelationDepth)
	assert.True(t, next.StrictMode)
	assert.Equal(t, 3, cfg.MaxRelationDepth, "original must not change")

	assert.Equal(t, 0, cfg.descend(-1).MaxRelationDepth)
}

func TestValidateOptions(t *testing.T) {
	require.NoError(t, ValidateOptions(nil))
	require.NoError(t, ValidateOptions(Options{OptDeep: true, OptStrictMode: false}))

	err := ValidateOptions(Options{"zeta": 1, "alpha": 2, OptDeep: true})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidConfiguration))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "alpha", appErr.Details["key"])
}

func TestSettings_Defaults(t *testing.T) {
	s := DefaultSettings()

	assert.True(t, s.Enabled)
	assert.Equal(t, Like, s.defaultOperator(TypeString))
	assert.Equal(t, InList, s.defaultOperator(TypeArray))
	assert.Equal(t, Equal, s.defaultOperator(TypeInteger))
	assert.Equal(t, Equal, s.defaultOperator("unknown"))
	assert.Equal(t, ",", s.delimiter())

	s.ArrayDelimiter = ""
	assert.Equal(t, ",", s.delimiter())
}
