package postgres

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/squirrel"

	"smartfilter/internal/domain/filter"
)

// identifierRe matches a column, optionally qualified by one table or alias.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SelectQuery implements filter.Queryable by collecting squirrel conditions.
// Related scopes become correlated EXISTS subqueries. Columns are written
// into SQL verbatim, so anything that is not a plain identifier is rejected
// and reported by Err.
type SelectQuery struct {
	model filter.Model
	alias string
	depth int

	conds []squirrel.Sqlizer
	err   error
}

var _ filter.Queryable = (*SelectQuery)(nil)

// NewSelectQuery creates a query rooted at m.
func NewSelectQuery(m filter.Model) *SelectQuery {
	return newSelectQuery(m, 0)
}

func newSelectQuery(m filter.Model, depth int) *SelectQuery {
	alias := m.TableName()
	if depth > 0 {
		alias = fmt.Sprintf("%s_%d", alias, depth)
	}
	return &SelectQuery{model: m, alias: alias, depth: depth}
}

// Model implements filter.Queryable.
func (q *SelectQuery) Model() filter.Model { return q.model }

// Qualifier implements filter.Queryable.
func (q *SelectQuery) Qualifier() string { return q.alias }

// Err returns the first invalid identifier or comparison seen, if any.
func (q *SelectQuery) Err() error { return q.err }

// Conditions returns the collected conditions in order.
func (q *SelectQuery) Conditions() []squirrel.Sqlizer {
	return append([]squirrel.Sqlizer(nil), q.conds...)
}

// Apply adds every condition to b.
func (q *SelectQuery) Apply(b squirrel.SelectBuilder) squirrel.SelectBuilder {
	for _, c := range q.conds {
		b = b.Where(c)
	}
	return b
}

func (q *SelectQuery) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

func (q *SelectQuery) add(column string, cond squirrel.Sqlizer) {
	if !identifierRe.MatchString(column) {
		q.fail(fmt.Errorf("invalid column identifier %q", column))
		return
	}
	q.conds = append(q.conds, cond)
}

// Where implements filter.Queryable.
func (q *SelectQuery) Where(column string, cmp filter.Comparison, value any) {
	var cond squirrel.Sqlizer
	switch cmp {
	case filter.CmpEq:
		cond = squirrel.Eq{column: value}
	case filter.CmpNotEq:
		cond = squirrel.NotEq{column: value}
	case filter.CmpGt:
		cond = squirrel.Gt{column: value}
	case filter.CmpGtOrEq:
		cond = squirrel.GtOrEq{column: value}
	case filter.CmpLt:
		cond = squirrel.Lt{column: value}
	case filter.CmpLtOrEq:
		cond = squirrel.LtOrEq{column: value}
	case filter.CmpLike:
		cond = squirrel.Like{column: value}
	case filter.CmpNotLike:
		cond = squirrel.NotLike{column: value}
	case filter.CmpILike:
		cond = squirrel.ILike{column: value}
	case filter.CmpNotILike:
		cond = squirrel.NotILike{column: value}
	default:
		q.fail(fmt.Errorf("unsupported comparison %q", cmp))
		return
	}
	q.add(column, cond)
}

// WhereIn implements filter.Queryable.
func (q *SelectQuery) WhereIn(column string, values []any) {
	q.add(column, squirrel.Eq{column: values})
}

// WhereNotIn implements filter.Queryable.
func (q *SelectQuery) WhereNotIn(column string, values []any) {
	q.add(column, squirrel.NotEq{column: values})
}

// WhereBetween implements filter.Queryable.
func (q *SelectQuery) WhereBetween(column string, from, to any) {
	q.add(column, squirrel.Expr(column+" BETWEEN ? AND ?", from, to))
}

// WhereNotBetween implements filter.Queryable.
func (q *SelectQuery) WhereNotBetween(column string, from, to any) {
	q.add(column, squirrel.Expr(column+" NOT BETWEEN ? AND ?", from, to))
}

// WhereNull implements filter.Queryable.
func (q *SelectQuery) WhereNull(column string) {
	q.add(column, squirrel.Eq{column: nil})
}

// WhereNotNull implements filter.Queryable.
func (q *SelectQuery) WhereNotNull(column string) {
	q.add(column, squirrel.NotEq{column: nil})
}

// WhereDate implements filter.Queryable.
func (q *SelectQuery) WhereDate(column string, value any) {
	q.add(column, squirrel.Expr(column+"::date = ?::date", value))
}

// WhereMonth implements filter.Queryable.
func (q *SelectQuery) WhereMonth(column string, value any) {
	q.datePart(column, "MONTH", value)
}

// WhereYear implements filter.Queryable.
func (q *SelectQuery) WhereYear(column string, value any) {
	q.datePart(column, "YEAR", value)
}

// WhereDay implements filter.Queryable.
func (q *SelectQuery) WhereDay(column string, value any) {
	q.datePart(column, "DAY", value)
}

func (q *SelectQuery) datePart(column, part string, value any) {
	q.add(column, squirrel.Expr(fmt.Sprintf("EXTRACT(%s FROM %s) = ?", part, column), filter.ToInteger(value)))
}

// WhereRelation implements filter.Queryable.
//
//	EXISTS (SELECT 1 FROM users AS users_1 WHERE users_1.id = posts.user_id AND ...)
func (q *SelectQuery) WhereRelation(rel filter.Relation, scope func(sub filter.Queryable)) {
	sub := newSelectQuery(rel.Related, q.depth+1)
	scope(sub)
	if sub.err != nil {
		q.fail(sub.err)
		return
	}

	foreign, owner := rel.Keys()
	var join string
	switch rel.Kind {
	case filter.BelongsTo:
		join = fmt.Sprintf("%s.%s = %s.%s", sub.alias, owner, q.alias, foreign)
	default:
		join = fmt.Sprintf("%s.%s = %s.%s", sub.alias, foreign, q.alias, owner)
	}
	if !identifierRe.MatchString(foreign) || !identifierRe.MatchString(owner) {
		q.fail(fmt.Errorf("invalid relation keys for %q", rel.Name))
		return
	}

	exists := squirrel.Select("1").
		From(rel.Related.TableName() + " AS " + sub.alias).
		Where(join)
	exists = sub.Apply(exists)

	q.conds = append(q.conds, squirrel.Expr("EXISTS (?)", exists))
}
