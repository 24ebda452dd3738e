package filter

import (
	"context"
	"fmt"
	"strings"

	"smartfilter/internal/core/apperror"
	"smartfilter/pkg/logger"
)

// Compiler turns filter specifications into predicates on a Queryable.
// It holds no per-call state and is safe for concurrent use.
type Compiler struct {
	settings Settings
	schema   SchemaIntrospector
	log      *logger.Logger
	observer Observer
}

// NewCompiler creates a compiler. schema may be nil when every model declares its descriptors.
func NewCompiler(settings Settings, schema SchemaIntrospector, log *logger.Logger) *Compiler {
	if log == nil {
		log = logger.Default()
	}
	return &Compiler{
		settings: settings,
		schema:   schema,
		log:      log.WithComponent("filter"),
		observer: nopObserver{},
	}
}

// WithObserver returns a copy of the compiler reporting outcomes to o.
func (c *Compiler) WithObserver(o Observer) *Compiler {
	cp := *c
	if o == nil {
		o = nopObserver{}
	}
	cp.observer = o
	return &cp
}

// Enabled reports whether filtering is globally enabled.
func (c *Compiler) Enabled() bool {
	return c.settings.Enabled
}

// Settings returns the compiler settings.
func (c *Compiler) Settings() Settings {
	return c.settings
}

// ConfigFor resolves the effective configuration for m: defaults, global
// defaults, model overrides and call-site options, in that order.
func (c *Compiler) ConfigFor(m Filterable, opts Options) Config {
	return ResolveConfig(DefaultConfig(), c.settings.Defaults, m.FilterConfig(), opts)
}

// Apply adds the conditions described by filters to q and returns q.
//
// The only fatal condition is a model that does not implement Filterable.
// Unknown fields and relations, exhausted depth, unknown operators and
// malformed values drop the single filter. In strict mode an unknown
// operator on an allowed field is reported instead.
func (c *Compiler) Apply(ctx context.Context, q Queryable, filters Filters, opts Options) (Queryable, error) {
	m, err := filterable(q.Model())
	if err != nil {
		return q, err
	}
	if !c.settings.Enabled || len(filters) == 0 {
		return q, nil
	}

	cfg := c.ConfigFor(m, opts)
	normalized := Normalize(filters)
	fields := sortedKeys(normalized)

	log := c.log.WithContext(ctx)
	if limit := c.settings.MaxFilters; limit > 0 && len(fields) > limit {
		log.Warnw("too many filters, extra filters dropped", "model", m.TableName(), "limit", limit, "dropped", fields[limit:])
		for range fields[limit:] {
			c.observer.FilterDropped(m.TableName(), ReasonMaxFilters)
		}
		fields = fields[:limit]
	}

	plans := make([]*node, 0, len(fields))
	for _, field := range fields {
		n, err := c.plan(ctx, m, field, normalized[field], cfg)
		if err != nil {
			return q, err
		}
		if n != nil {
			plans = append(plans, n)
		}
	}

	for _, n := range plans {
		n.emit(q)
	}
	c.observer.FiltersApplied(m.TableName(), len(plans))

	log.Debugw("filters applied",
		"model", m.TableName(),
		"requested", len(filters),
		"applied", len(plans),
	)
	return q, nil
}

// ApplyFromSource reads filters for the model's declared fields from source
// (operator and type from each field descriptor) and applies them.
func (c *Compiler) ApplyFromSource(ctx context.Context, q Queryable, src Source, opts Options) (Queryable, error) {
	m, err := filterable(q.Model())
	if err != nil {
		return q, err
	}

	allowed := make(map[string]Rule)
	for name, f := range c.fields(ctx, m).byName {
		allowed[name] = Rule{Operator: f.DefaultOperator, Type: f.Type}
	}
	return c.Apply(ctx, q, c.ParseFromSource(allowed, src), opts)
}

// CheckRelation validates a dotted path against the relation allow-lists and
// reports the first problem as a RelationError. Apply never calls it; callers
// wanting strict relation validation do.
func (c *Compiler) CheckRelation(ctx context.Context, m Model, path string) error {
	f, err := filterable(m)
	if err != nil {
		return err
	}

	head, rest, dotted := strings.Cut(path, ".")
	if !dotted {
		if _, ok := c.fields(ctx, f).get(path); !ok {
			return apperror.NewRelationError(path, "field is not filterable")
		}
		return nil
	}

	rd, ok := c.relations(ctx, f).get(head)
	if !ok {
		return apperror.NewRelationError(head, "relation is not filterable")
	}
	rel, ok := resolveRelation(f, head)
	if !ok {
		return apperror.NewRelationError(head, "relation is not defined on "+f.TableName())
	}
	next, _, _ := strings.Cut(rest, ".")
	if rd.AllowedFields != nil && !contains(rd.AllowedFields, next) {
		return apperror.NewRelationError(head, fmt.Sprintf("field [%s] is not allowed", next))
	}
	if related, ok := rel.Related.(Filterable); ok {
		return c.CheckRelation(ctx, related, rest)
	}
	if strings.Contains(rest, ".") {
		return apperror.NewRelationError(head, "nested relations require a filterable model")
	}
	return nil
}

// node is a validated filter ready to be emitted: either a local predicate
// or a relation scope wrapping a child node.
type node struct {
	// local predicate
	field string
	op    operator
	value any
	cfg   Config

	// relation scope
	relation *Relation
	child    *node
}

func (n *node) emit(q Queryable) {
	if n.relation != nil {
		child := n.child
		q.WhereRelation(*n.relation, func(sub Queryable) {
			child.emit(sub)
		})
		return
	}
	n.op.emit(q, q.Qualifier()+"."+n.field, n.value, n.cfg)
}

// plan validates and coerces one filter. A nil node means the filter is dropped.
func (c *Compiler) plan(ctx context.Context, m Filterable, field string, spec Spec, cfg Config) (*node, error) {
	if absent(spec.Value) {
		return nil, nil
	}
	if cfg.Deep && strings.Contains(field, ".") {
		return c.planRelation(ctx, m, field, spec, cfg)
	}

	if _, ok := c.fields(ctx, m).get(field); !ok {
		c.dropped(ctx, m, field, ReasonUnknownField)
		return nil, nil
	}
	return c.planPredicate(ctx, m, field, spec, cfg)
}

// planPredicate resolves the operator and shapes the value. The field has
// already been accepted (or is on the fallback path).
func (c *Compiler) planPredicate(ctx context.Context, m Model, field string, spec Spec, cfg Config) (*node, error) {
	op, ok := operators[spec.Operator]
	if !ok {
		if cfg.StrictMode {
			return nil, apperror.NewUnknownOperator(field, string(spec.Operator))
		}
		c.dropped(ctx, m, field, ReasonUnknownOperator, "operator", spec.Operator)
		return nil, nil
	}

	value := Coerce(spec.Value, spec.Type, spec.Operator, c.settings.delimiter())
	if op.prepare != nil {
		if value, ok = op.prepare(value); !ok {
			c.dropped(ctx, m, field, ReasonValueShape, "operator", spec.Operator)
			return nil, nil
		}
	}
	return &node{field: field, op: op, value: value, cfg: cfg}, nil
}

// planRelation walks one relation hop of a dotted field.
func (c *Compiler) planRelation(ctx context.Context, m Filterable, field string, spec Spec, cfg Config) (*node, error) {
	head, rest, _ := strings.Cut(field, ".")

	rd, ok := c.relations(ctx, m).get(head)
	if !ok {
		c.dropped(ctx, m, field, ReasonUnknownRelation)
		return nil, nil
	}

	depth := c.effectiveDepth(cfg.MaxRelationDepth, rd.MaxDepth)
	if depth <= 0 {
		c.dropped(ctx, m, field, ReasonDepthExhausted)
		return nil, nil
	}

	next, _, _ := strings.Cut(rest, ".")
	if rd.AllowedFields != nil && !contains(rd.AllowedFields, next) {
		c.dropped(ctx, m, field, ReasonRelationField)
		return nil, nil
	}

	rel, ok := resolveRelation(m, head)
	if !ok {
		c.dropped(ctx, m, field, ReasonUndefinedRelation)
		return nil, nil
	}

	var (
		child *node
		err   error
	)
	if related, ok := rel.Related.(Filterable); ok {
		child, err = c.plan(ctx, related, rest, spec, cfg.descend(depth-1))
	} else {
		child, err = c.planFallback(ctx, rel.Related, rest, spec, cfg)
	}
	if err != nil || child == nil {
		return nil, err
	}
	return &node{relation: &rel, child: child}, nil
}

// planFallback builds a single-level predicate on a related model that does
// not implement Filterable. There is no allow-list at this level.
func (c *Compiler) planFallback(ctx context.Context, related Model, field string, spec Spec, cfg Config) (*node, error) {
	if strings.Contains(field, ".") {
		c.dropped(ctx, related, field, ReasonNestedFallback)
		return nil, nil
	}
	return c.planPredicate(ctx, related, field, spec, cfg)
}

// effectiveDepth is the smallest of the remaining depth, the relation's own
// cap and the global cap (caps of 0 are ignored).
func (c *Compiler) effectiveDepth(remaining, relationMax int) int {
	depth := remaining
	if relationMax > 0 && relationMax < depth {
		depth = relationMax
	}
	if limit := c.settings.MaxRelationDepth; limit > 0 && limit < depth {
		depth = limit
	}
	return depth
}

func (c *Compiler) dropped(ctx context.Context, m Model, field, reason string, kv ...any) {
	c.observer.FilterDropped(m.TableName(), reason)
	c.log.WithContext(ctx).Debugw("filter dropped",
		append([]any{"model", m.TableName(), "field", field, "reason", reason}, kv...)...,
	)
}

func filterable(m Model) (Filterable, error) {
	if m == nil {
		return nil, apperror.NewInvalidModel("<nil>")
	}
	f, ok := m.(Filterable)
	if !ok {
		return nil, apperror.NewInvalidModel(fmt.Sprintf("%T", m))
	}
	return f, nil
}

func resolveRelation(m Model, name string) (Relation, bool) {
	resolver, ok := m.(RelationResolver)
	if !ok {
		return Relation{}, false
	}
	rel, ok := resolver.Relation(name)
	if !ok || rel.Related == nil {
		return Relation{}, false
	}
	if rel.Name == "" {
		rel.Name = name
	}
	return rel, true
}

func contains(items []string, item string) bool {
	for _, it := range items {
		if it == item {
			return true
		}
	}
	return false
}
