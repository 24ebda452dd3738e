package filter

// operator describes how one Operator becomes exactly one predicate.
type operator struct {
	// prepare shapes the coerced value; false drops the filter. nil keeps the value.
	prepare func(value any) (any, bool)
	emit    func(q Queryable, column string, value any, cfg Config)
}

// operators is the dispatch table. Operators missing here are unknown.
var operators = map[Operator]operator{
	Equal:          {prepare: scalar, emit: compare(CmpEq)},
	NotEqual:       {prepare: scalar, emit: compare(CmpNotEq)},
	Greater:        {prepare: scalar, emit: compare(CmpGt)},
	GreaterOrEqual: {prepare: scalar, emit: compare(CmpGtOrEq)},
	Less:           {prepare: scalar, emit: compare(CmpLt)},
	LessOrEqual:    {prepare: scalar, emit: compare(CmpLtOrEq)},

	Like: {
		prepare: scalar,
		emit: func(q Queryable, column string, value any, cfg Config) {
			cmp := CmpILike
			if cfg.CaseSensitive {
				cmp = CmpLike
			}
			q.Where(column, cmp, value)
		},
	},
	NotLike: {
		prepare: scalar,
		emit: func(q Queryable, column string, value any, cfg Config) {
			cmp := CmpNotILike
			if cfg.CaseSensitive {
				cmp = CmpNotLike
			}
			q.Where(column, cmp, value)
		},
	},

	InList: {
		prepare: list,
		emit: func(q Queryable, column string, value any, _ Config) {
			q.WhereIn(column, value.([]any))
		},
	},
	NotInList: {
		prepare: list,
		emit: func(q Queryable, column string, value any, _ Config) {
			q.WhereNotIn(column, value.([]any))
		},
	},

	Between: {
		prepare: pair,
		emit: func(q Queryable, column string, value any, _ Config) {
			bounds := value.([]any)
			q.WhereBetween(column, bounds[0], bounds[1])
		},
	},
	NotBetween: {
		prepare: pair,
		emit: func(q Queryable, column string, value any, _ Config) {
			bounds := value.([]any)
			q.WhereNotBetween(column, bounds[0], bounds[1])
		},
	},

	IsNull: {
		emit: func(q Queryable, column string, _ any, _ Config) { q.WhereNull(column) },
	},
	IsNotNull: {
		emit: func(q Queryable, column string, _ any, _ Config) { q.WhereNotNull(column) },
	},

	DateEqual: {
		prepare: scalar,
		emit:    func(q Queryable, column string, value any, _ Config) { q.WhereDate(column, value) },
	},
	MonthEqual: {
		prepare: scalar,
		emit:    func(q Queryable, column string, value any, _ Config) { q.WhereMonth(column, value) },
	},
	YearEqual: {
		prepare: scalar,
		emit:    func(q Queryable, column string, value any, _ Config) { q.WhereYear(column, value) },
	},
	DayEqual: {
		prepare: scalar,
		emit:    func(q Queryable, column string, value any, _ Config) { q.WhereDay(column, value) },
	},
}

func compare(cmp Comparison) func(Queryable, string, any, Config) {
	return func(q Queryable, column string, value any, _ Config) {
		q.Where(column, cmp, value)
	}
}

func scalar(value any) (any, bool) {
	return value, !isList(value)
}

func list(value any) (any, bool) {
	return ToSlice(value), true
}

func pair(value any) (any, bool) {
	bounds := ToSlice(value)
	return bounds, len(bounds) == 2
}
