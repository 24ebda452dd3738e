package filter

import (
	"sort"

	"smartfilter/internal/core/apperror"
)

// Option keys understood by the config resolver.
const (
	OptDeep             = "deep"
	OptMaxRelationDepth = "max_relation_depth"
	OptCaseSensitive    = "case_sensitive"
	OptStrictMode       = "strict_mode"
)

var knownOptions = map[string]struct{}{
	OptDeep:             {},
	OptMaxRelationDepth: {},
	OptCaseSensitive:    {},
	OptStrictMode:       {},
}

// Options is a loosely typed configuration layer (global defaults, model overrides, call-site options).
type Options map[string]any

// Config is the resolved per-invocation filter configuration.
type Config struct {
	Deep             bool `json:"deep"`
	MaxRelationDepth int  `json:"maxRelationDepth"`
	CaseSensitive    bool `json:"caseSensitive"`
	StrictMode       bool `json:"strictMode"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Deep:             true,
		MaxRelationDepth: 2,
		CaseSensitive:    false,
		StrictMode:       false,
	}
}

// ResolveConfig merges layers over base; later layers win. Unknown keys are ignored.
func ResolveConfig(base Config, layers ...Options) Config {
	cfg := base
	for _, layer := range layers {
		cfg = cfg.merge(layer)
	}
	return cfg
}

func (c Config) merge(o Options) Config {
	for key, v := range o {
		switch key {
		case OptDeep:
			c.Deep = ToBoolean(v)
		case OptMaxRelationDepth:
			c.MaxRelationDepth = int(ToInteger(v))
		case OptCaseSensitive:
			c.CaseSensitive = ToBoolean(v)
		case OptStrictMode:
			c.StrictMode = ToBoolean(v)
		}
	}
	if c.MaxRelationDepth < 0 {
		c.MaxRelationDepth = 0
	}
	return c
}

// descend returns a copy for one relation hop deeper.
func (c Config) descend(remaining int) Config {
	if remaining < 0 {
		remaining = 0
	}
	c.MaxRelationDepth = remaining
	return c
}

// ValidateOptions rejects keys the resolver does not understand.
// The resolver itself ignores them; callers opt into this check.
func ValidateOptions(o Options) error {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := knownOptions[k]; !ok {
			return apperror.NewInvalidConfiguration(k)
		}
	}
	return nil
}

// Settings is the compiler-wide configuration, usually built from the config file.
type Settings struct {
	// Enabled turns filtering off globally when false.
	Enabled bool

	// Defaults is the global option layer applied over DefaultConfig.
	Defaults Options

	// ExcludedFields are never derived from the schema.
	ExcludedFields []string

	// DefaultOperators gives schema-derived fields their default operator per type.
	DefaultOperators map[Type]Operator

	// AutoDiscoverRelations enables *_id relation discovery.
	AutoDiscoverRelations bool

	// ExcludedRelations are never discovered.
	ExcludedRelations []string

	// MaxRelationDepth is the global cap on relation hops; 0 disables the cap.
	MaxRelationDepth int

	// MaxFilters limits filters per call; 0 means unlimited.
	MaxFilters int

	// RequestPrefix is prepended to field names when reading a request source.
	RequestPrefix string

	// ArrayDelimiter splits array values given as strings.
	ArrayDelimiter string
}

// DefaultSettings mirrors the package defaults.
func DefaultSettings() Settings {
	return Settings{
		Enabled:  true,
		Defaults: Options{},
		ExcludedFields: []string{
			"id",
			"uuid",
			"created_at",
			"updated_at",
			"deleted_at",
			"password",
			"remember_token",
			"email_verified_at",
			"two_factor_secret",
			"two_factor_recovery_codes",
		},
		DefaultOperators: map[Type]Operator{
			TypeString:  Like,
			TypeInteger: Equal,
			TypeFloat:   Equal,
			TypeBoolean: Equal,
			TypeDate:    Equal,
			TypeArray:   InList,
		},
		AutoDiscoverRelations: true,
		ExcludedRelations:     []string{"password", "secret", "tokens", "oauth_providers"},
		MaxRelationDepth:      3,
		MaxFilters:            20,
		ArrayDelimiter:        ",",
	}
}

func (s Settings) defaultOperator(t Type) Operator {
	if op, ok := s.DefaultOperators[t]; ok && op != "" {
		return op
	}
	return Equal
}

func (s Settings) delimiter() string {
	if s.ArrayDelimiter == "" {
		return ","
	}
	return s.ArrayDelimiter
}
