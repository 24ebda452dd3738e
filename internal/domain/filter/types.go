// Package filter compiles declarative filter specifications into query conditions.
//
// A filter is a field/operator/type/value tuple. The compiler checks every field
// against the model's allow-list, coerces the value to the declared type and emits
// exactly one predicate on a Queryable. Dotted fields ("user.name") walk declared
// relations up to a bounded depth. Anything the compiler does not recognise is
// dropped instead of failing the query.
package filter

import "strings"

// Operator is the logical comparison requested by a filter.
type Operator string

const (
	Equal          Operator = "="
	NotEqual       Operator = "!="
	Greater        Operator = ">"
	GreaterOrEqual Operator = ">="
	Less           Operator = "<"
	LessOrEqual    Operator = "<="
	Like           Operator = "like"     // LIKE %val%
	NotLike        Operator = "not_like" // NOT LIKE val
	InList         Operator = "in"
	NotInList      Operator = "not_in"
	Between        Operator = "between"
	NotBetween     Operator = "not_between"
	IsNull         Operator = "null"
	IsNotNull      Operator = "not_null"

	// Date component comparisons
	DateEqual  Operator = "date"
	MonthEqual Operator = "month"
	YearEqual  Operator = "year"
	DayEqual   Operator = "day"
)

// Known reports whether the operator has an entry in the dispatch table.
func (o Operator) Known() bool {
	_, ok := operators[o]
	return ok
}

// Type is the semantic type a raw value is coerced to.
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeFloat   Type = "float"
	TypeBoolean Type = "boolean"
	TypeDate    Type = "date"
	TypeArray   Type = "array"
)

// typeAliases maps accepted spellings to canonical types.
var typeAliases = map[string]Type{
	"string":  TypeString,
	"integer": TypeInteger,
	"number":  TypeInteger,
	"float":   TypeFloat,
	"decimal": TypeFloat,
	"boolean": TypeBoolean,
	"date":    TypeDate,
	"array":   TypeArray,
}

// ParseType resolves a type name, including the "number" and "decimal" aliases.
func ParseType(name string) (Type, bool) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// canonical returns the canonical form of t, or t itself when it is unknown.
func (t Type) canonical() Type {
	if c, ok := ParseType(string(t)); ok {
		return c
	}
	return t
}

// Spec is a single filter condition.
type Spec struct {
	Field    string   `json:"field,omitempty"`
	Value    any      `json:"value"`
	Operator Operator `json:"operator,omitempty"`
	Type     Type     `json:"type,omitempty"`
}

// Filters maps a (possibly dotted) field name to its condition.
type Filters map[string]Spec

// Rule is an allow-list entry used when filters are read from a request source.
type Rule struct {
	Operator Operator `json:"operator,omitempty" yaml:"operator"`
	Type     Type     `json:"type,omitempty" yaml:"type"`
}

// FieldDescriptor declares a filterable column of a model.
type FieldDescriptor struct {
	Name            string   `json:"name"`
	Type            Type     `json:"type"`
	DefaultOperator Operator `json:"defaultOperator"`
}

// RelationDescriptor declares a filterable relation of a model.
type RelationDescriptor struct {
	Name string `json:"name"`

	// AllowedFields restricts the nested field. nil defers to the related model's
	// own allow-list; an empty non-nil slice allows nothing.
	AllowedFields []string `json:"allowedFields,omitempty"`

	// MaxDepth caps traversal through this relation; 0 means no own cap.
	MaxDepth int `json:"maxDepth"`
}

// absent reports whether a value must be treated as "not supplied".
func absent(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
