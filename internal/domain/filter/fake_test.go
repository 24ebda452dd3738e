package filter

import (
	"context"
	"fmt"
	"strings"

	"smartfilter/internal/core/apperror"
	"smartfilter/pkg/logger"
)

// recorder is a Queryable that records every call as text.
type recorder struct {
	model     Model
	qualifier string
	calls     []string
}

func newRecorder(m Model) *recorder {
	return &recorder{model: m, qualifier: m.TableName()}
}

func (r *recorder) Model() Model      { return r.model }
func (r *recorder) Qualifier() string { return r.qualifier }

func (r *recorder) record(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) Where(column string, cmp Comparison, value any) {
	r.record("%s %s %v", column, cmp, value)
}
func (r *recorder) WhereIn(column string, values []any)    { r.record("%s IN %v", column, values) }
func (r *recorder) WhereNotIn(column string, values []any) { r.record("%s NOT IN %v", column, values) }
func (r *recorder) WhereBetween(column string, from, to any) {
	r.record("%s BETWEEN %v AND %v", column, from, to)
}
func (r *recorder) WhereNotBetween(column string, from, to any) {
	r.record("%s NOT BETWEEN %v AND %v", column, from, to)
}
func (r *recorder) WhereNull(column string)            { r.record("%s IS NULL", column) }
func (r *recorder) WhereNotNull(column string)         { r.record("%s IS NOT NULL", column) }
func (r *recorder) WhereDate(column string, value any)  { r.record("DATE(%s) = %v", column, value) }
func (r *recorder) WhereMonth(column string, value any) { r.record("MONTH(%s) = %v", column, value) }
func (r *recorder) WhereYear(column string, value any)  { r.record("YEAR(%s) = %v", column, value) }
func (r *recorder) WhereDay(column string, value any)   { r.record("DAY(%s) = %v", column, value) }

func (r *recorder) WhereRelation(rel Relation, scope func(sub Queryable)) {
	sub := newRecorder(rel.Related)
	scope(sub)
	r.record("HAS %s(%s)", rel.Name, strings.Join(sub.calls, " AND "))
}

// --- test models ---

type author struct{}

func (author) TableName() string { return "authors" }
func (author) FilterableFields() []FieldDescriptor {
	return []FieldDescriptor{
		{Name: "name", Type: TypeString},
		{Name: "age", Type: TypeInteger},
		{Name: "active", Type: TypeBoolean},
		{Name: "born", Type: TypeDate},
	}
}
func (author) FilterableRelations() []RelationDescriptor {
	return []RelationDescriptor{
		{Name: "books", AllowedFields: []string{"title"}},
		{Name: "mentor"},
		{Name: "agency"},
		{Name: "ghost"},
	}
}
func (author) FilterConfig() Options { return nil }
func (author) Relation(name string) (Relation, bool) {
	switch name {
	case "books":
		return Relation{Kind: HasMany, Related: book{}, ForeignKey: "author_id"}, true
	case "mentor":
		return Relation{Kind: BelongsTo, Related: author{}, ForeignKey: "mentor_id"}, true
	case "agency":
		return Relation{Kind: BelongsTo, Related: agency{}, ForeignKey: "agency_id"}, true
	}
	return Relation{}, false
}

type book struct{}

func (book) TableName() string { return "books" }
func (book) FilterableFields() []FieldDescriptor {
	return []FieldDescriptor{{Name: "title", Type: TypeString}, {Name: "pages", Type: TypeInteger}}
}
func (book) FilterableRelations() []RelationDescriptor { return []RelationDescriptor{} }
func (book) FilterConfig() Options                      { return Options{OptStrictMode: true} }

// agency is not filterable.
type agency struct{}

func (agency) TableName() string { return "agencies" }

// derivedModel gets everything from the schema.
type derivedModel struct {
	SchemaDerived
}

func (derivedModel) TableName() string { return "orders" }
func (derivedModel) Relation(name string) (Relation, bool) {
	if name == "customer" {
		return Relation{Kind: BelongsTo, Related: author{}, ForeignKey: "customer_id"}, true
	}
	return Relation{}, false
}

// fakeSchema is an in-memory SchemaIntrospector.
type fakeSchema map[string]map[string]Type

func (s fakeSchema) ListColumns(_ context.Context, table string) ([]string, error) {
	cols, ok := s[table]
	if !ok {
		return nil, apperror.NewNotFound("table", table)
	}
	return sortedKeys(cols), nil
}

func (s fakeSchema) ColumnType(_ context.Context, table, column string) (Type, error) {
	t, ok := s[table][column]
	if !ok {
		return "", apperror.NewNotFound("column", column)
	}
	return t, nil
}

var testSchema = fakeSchema{
	"orders": {
		"id":           TypeInteger,
		"total":        TypeFloat,
		"status":       TypeString,
		"tags":         TypeArray,
		"customer_id":  TypeInteger,
		"coupon_id":    TypeInteger,
		"api_token":    TypeString,
		"created_at":   TypeDate,
		"paid":         TypeBoolean,
		"owner_secret": TypeString,
	},
}

func newTestCompiler(mutate ...func(*Settings)) *Compiler {
	s := DefaultSettings()
	for _, m := range mutate {
		m(&s)
	}
	return NewCompiler(s, testSchema, logger.Nop())
}
