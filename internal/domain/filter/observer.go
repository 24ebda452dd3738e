package filter

// Reasons a filter is dropped. They are stable and low-cardinality so they can
// be used as metric labels.
const (
	ReasonUnknownField      = "unknown_field"
	ReasonUnknownOperator   = "unknown_operator"
	ReasonValueShape        = "value_shape"
	ReasonUnknownRelation   = "unknown_relation"
	ReasonUndefinedRelation = "undefined_relation"
	ReasonRelationField     = "relation_field_not_allowed"
	ReasonDepthExhausted    = "depth_exhausted"
	ReasonNestedFallback    = "nested_fallback"
	ReasonMaxFilters        = "max_filters"
)

// Observer receives compile outcomes. Implementations must be safe for concurrent use.
type Observer interface {
	// FiltersApplied is called once per Apply with the number of emitted predicates.
	FiltersApplied(model string, n int)

	// FilterDropped is called for every filter skipped instead of failing the query.
	FilterDropped(model, reason string)
}

type nopObserver struct{}

func (nopObserver) FiltersApplied(string, int) {}
func (nopObserver) FilterDropped(string, string) {}
