package memory

import (
	"fmt"
	"strings"

	"smartfilter/internal/domain/filter"
)

// predicate tests a record; snap resolves related tables.
type predicate func(snap snapshot, r Record) bool

// Query implements filter.Queryable over a Store. Conditions are ANDed.
type Query struct {
	store *Store
	model filter.Model
	alias string
	depth int

	preds []predicate
	conds []string
}

var _ filter.Queryable = (*Query)(nil)

func newQuery(store *Store, m filter.Model, depth int) *Query {
	alias := m.TableName()
	if depth > 0 {
		alias = fmt.Sprintf("%s_%d", alias, depth)
	}
	return &Query{store: store, model: m, alias: alias, depth: depth}
}

// Model implements filter.Queryable.
func (q *Query) Model() filter.Model { return q.model }

// Qualifier implements filter.Queryable.
func (q *Query) Qualifier() string { return q.alias }

// Conditions returns a readable form of every condition added, in order.
func (q *Query) Conditions() []string {
	return append([]string(nil), q.conds...)
}

// Get returns the matching records in insertion order.
func (q *Query) Get() []Record {
	snap := q.store.snapshot()
	var out []Record
	for _, r := range snap[q.model.TableName()] {
		if q.matches(snap, r) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of matching records.
func (q *Query) Count() int {
	return len(q.Get())
}

func (q *Query) matches(snap snapshot, r Record) bool {
	for _, p := range q.preds {
		if !p(snap, r) {
			return false
		}
	}
	return true
}

func (q *Query) add(cond string, p predicate) {
	q.conds = append(q.conds, cond)
	q.preds = append(q.preds, p)
}

// field strips the qualifier from a column.
func (q *Query) field(column string) string {
	return strings.TrimPrefix(column, q.alias+".")
}

// Where implements filter.Queryable.
func (q *Query) Where(column string, cmp filter.Comparison, value any) {
	f := q.field(column)
	cond := fmt.Sprintf("%s %s %v", column, cmp, value)

	switch cmp {
	case filter.CmpLike, filter.CmpILike, filter.CmpNotLike, filter.CmpNotILike:
		re := likePattern(fmt.Sprint(value), cmp == filter.CmpILike || cmp == filter.CmpNotILike)
		negate := cmp == filter.CmpNotLike || cmp == filter.CmpNotILike
		q.add(cond, func(_ snapshot, r Record) bool {
			v := r[f]
			if v == nil {
				return false
			}
			return re.MatchString(fmt.Sprint(v)) != negate
		})
		return
	}

	q.add(cond, func(_ snapshot, r Record) bool {
		c, ok := compareValues(r[f], value)
		if !ok {
			return false
		}
		switch cmp {
		case filter.CmpEq:
			return c == 0
		case filter.CmpNotEq:
			return c != 0
		case filter.CmpGt:
			return c > 0
		case filter.CmpGtOrEq:
			return c >= 0
		case filter.CmpLt:
			return c < 0
		case filter.CmpLtOrEq:
			return c <= 0
		}
		return false
	})
}

// WhereIn implements filter.Queryable.
func (q *Query) WhereIn(column string, values []any) {
	f := q.field(column)
	q.add(fmt.Sprintf("%s IN %v", column, values), func(_ snapshot, r Record) bool {
		return inList(r[f], values)
	})
}

// WhereNotIn implements filter.Queryable.
func (q *Query) WhereNotIn(column string, values []any) {
	f := q.field(column)
	q.add(fmt.Sprintf("%s NOT IN %v", column, values), func(_ snapshot, r Record) bool {
		return r[f] != nil && !inList(r[f], values)
	})
}

// WhereBetween implements filter.Queryable.
func (q *Query) WhereBetween(column string, from, to any) {
	f := q.field(column)
	q.add(fmt.Sprintf("%s BETWEEN %v AND %v", column, from, to), func(_ snapshot, r Record) bool {
		in, ok := between(r[f], from, to)
		return ok && in
	})
}

// WhereNotBetween implements filter.Queryable.
func (q *Query) WhereNotBetween(column string, from, to any) {
	f := q.field(column)
	q.add(fmt.Sprintf("%s NOT BETWEEN %v AND %v", column, from, to), func(_ snapshot, r Record) bool {
		in, ok := between(r[f], from, to)
		return ok && !in
	})
}

// WhereNull implements filter.Queryable.
func (q *Query) WhereNull(column string) {
	f := q.field(column)
	q.add(column+" IS NULL", func(_ snapshot, r Record) bool {
		return isNull(r[f])
	})
}

// WhereNotNull implements filter.Queryable.
func (q *Query) WhereNotNull(column string) {
	f := q.field(column)
	q.add(column+" IS NOT NULL", func(_ snapshot, r Record) bool {
		return !isNull(r[f])
	})
}

// WhereDate implements filter.Queryable.
func (q *Query) WhereDate(column string, value any) {
	f := q.field(column)
	want := dateOf(value)
	q.add(fmt.Sprintf("DATE(%s) = %v", column, want), func(_ snapshot, r Record) bool {
		t, ok := toTime(r[f])
		return ok && t.Format(dateLayout) == want
	})
}

// WhereMonth implements filter.Queryable.
func (q *Query) WhereMonth(column string, value any) {
	q.datePart(column, "MONTH", value, func(p dateParts) int { return p.month })
}

// WhereYear implements filter.Queryable.
func (q *Query) WhereYear(column string, value any) {
	q.datePart(column, "YEAR", value, func(p dateParts) int { return p.year })
}

// WhereDay implements filter.Queryable.
func (q *Query) WhereDay(column string, value any) {
	q.datePart(column, "DAY", value, func(p dateParts) int { return p.day })
}

func (q *Query) datePart(column, part string, value any, pick func(dateParts) int) {
	f := q.field(column)
	want := filter.ToInteger(value)
	q.add(fmt.Sprintf("%s(%s) = %d", part, column, want), func(_ snapshot, r Record) bool {
		t, ok := toTime(r[f])
		if !ok {
			return false
		}
		return int64(pick(partsOf(t))) == want
	})
}

// WhereRelation implements filter.Queryable.
func (q *Query) WhereRelation(rel filter.Relation, scope func(sub filter.Queryable)) {
	sub := newQuery(q.store, rel.Related, q.depth+1)
	scope(sub)

	foreign, owner := rel.Keys()
	table := rel.Related.TableName()
	cond := fmt.Sprintf("EXISTS %s(%s)", rel.Name, strings.Join(sub.conds, " AND "))

	q.add(cond, func(snap snapshot, r Record) bool {
		var localKey, relatedKey string
		switch rel.Kind {
		case filter.BelongsTo:
			localKey, relatedKey = foreign, owner
		default:
			localKey, relatedKey = owner, foreign
		}

		key := r[localKey]
		if isNull(key) {
			return false
		}
		for _, related := range snap[table] {
			if c, ok := compareValues(related[relatedKey], key); ok && c == 0 && sub.matches(snap, related) {
				return true
			}
		}
		return false
	})
}
