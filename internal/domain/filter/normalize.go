package filter

import (
	"net/url"
	"sort"
)

// Normalize fills in the field name and defaults missing operator/type to "="/"string".
func Normalize(filters Filters) Filters {
	out := make(Filters, len(filters))
	for field, spec := range filters {
		spec.Field = field
		if spec.Operator == "" {
			spec.Operator = Equal
		}
		if spec.Type == "" {
			spec.Type = TypeString
		}
		out[field] = spec
	}
	return out
}

// Source yields raw values by key, e.g. query-string parameters.
type Source interface {
	Lookup(key string) (any, bool)
}

// MapSource is a Source backed by a plain map.
type MapSource map[string]any

// Lookup implements Source.
func (s MapSource) Lookup(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// ValuesSource adapts url.Values. Repeated keys yield []string.
type ValuesSource url.Values

// Lookup implements Source.
func (s ValuesSource) Lookup(key string) (any, bool) {
	values, ok := s[key]
	if !ok || len(values) == 0 {
		return nil, false
	}
	if len(values) == 1 {
		return values[0], true
	}
	return values, true
}

// ParseFromSource builds filters for every allowed field present and non-empty
// in source. Values are coerced by the rule's type; missing operator/type
// default to "="/"string". Omitted fields never become "= NULL" conditions.
func (c *Compiler) ParseFromSource(allowed map[string]Rule, source Source) Filters {
	out := make(Filters, len(allowed))
	if source == nil {
		return out
	}

	for _, field := range sortedKeys(allowed) {
		rule := allowed[field]
		raw, ok := source.Lookup(c.settings.RequestPrefix + field)
		if !ok || absent(raw) {
			continue
		}

		op := rule.Operator
		if op == "" {
			op = Equal
		}
		t := rule.Type
		if t == "" {
			t = TypeString
		}

		out[field] = Spec{
			Field:    field,
			Value:    coerceRaw(raw, t, c.settings.delimiter()),
			Operator: op,
			Type:     t,
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
