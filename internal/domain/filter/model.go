package filter

// Model is anything backed by a table.
type Model interface {
	TableName() string
}

// Filterable is the filter contract a model must implement to accept filters.
//
// A nil result from FilterableFields or FilterableRelations means "derive it":
// fields are read from the schema, relations are discovered from *_id columns.
// Embed SchemaDerived to get that behaviour for all three methods.
type Filterable interface {
	Model
	FilterableFields() []FieldDescriptor
	FilterableRelations() []RelationDescriptor
	FilterConfig() Options
}

// SchemaDerived implements Filterable's descriptor methods with schema-derived defaults.
type SchemaDerived struct{}

// FilterableFields returns nil so fields are derived from the schema.
func (SchemaDerived) FilterableFields() []FieldDescriptor { return nil }

// FilterableRelations returns nil so relations are discovered from foreign key columns.
func (SchemaDerived) FilterableRelations() []RelationDescriptor { return nil }

// FilterConfig returns no model-level overrides.
func (SchemaDerived) FilterConfig() Options { return nil }

// RelationKind describes on which side of a relation the foreign key lives.
type RelationKind string

const (
	BelongsTo RelationKind = "belongs_to" // FK on the parent table
	HasMany   RelationKind = "has_many"   // FK on the related table
	HasOne    RelationKind = "has_one"    // FK on the related table
)

// Relation describes how two models are joined.
type Relation struct {
	Name    string
	Kind    RelationKind
	Related Model

	// ForeignKey is the referencing column (on the parent for BelongsTo, on the related table otherwise).
	ForeignKey string

	// OwnerKey is the referenced column, "id" when empty.
	OwnerKey string
}

// Keys returns the foreign and owner key with defaults applied.
func (r Relation) Keys() (foreign, owner string) {
	owner = r.OwnerKey
	if owner == "" {
		owner = "id"
	}
	return r.ForeignKey, owner
}

// RelationResolver is implemented by models that declare relations.
type RelationResolver interface {
	Relation(name string) (Relation, bool)
}

// Comparison is a primitive predicate operator understood by Queryable implementations.
type Comparison string

const (
	CmpEq       Comparison = "="
	CmpNotEq    Comparison = "!="
	CmpGt       Comparison = ">"
	CmpGtOrEq   Comparison = ">="
	CmpLt       Comparison = "<"
	CmpLtOrEq   Comparison = "<="
	CmpLike     Comparison = "LIKE"
	CmpNotLike  Comparison = "NOT LIKE"
	CmpILike    Comparison = "ILIKE"
	CmpNotILike Comparison = "NOT ILIKE"
)

// Queryable is the predicate-building surface the compiler writes to.
// Columns passed in are already qualified with Qualifier().
type Queryable interface {
	// Model returns the model this query (or relation scope) selects from.
	Model() Model

	// Qualifier is the table name or alias used to qualify columns.
	Qualifier() string

	Where(column string, cmp Comparison, value any)
	WhereIn(column string, values []any)
	WhereNotIn(column string, values []any)
	WhereBetween(column string, from, to any)
	WhereNotBetween(column string, from, to any)
	WhereNull(column string)
	WhereNotNull(column string)
	WhereDate(column string, value any)
	WhereMonth(column string, value any)
	WhereYear(column string, value any)
	WhereDay(column string, value any)

	// WhereRelation restricts the query to rows having a related row that
	// satisfies the conditions added by scope.
	WhereRelation(rel Relation, scope func(sub Queryable))
}
