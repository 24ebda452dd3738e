package filter

import (
	"context"
	"strings"
	"unicode"
)

// SchemaIntrospector exposes table metadata used to derive default descriptors.
type SchemaIntrospector interface {
	ListColumns(ctx context.Context, table string) ([]string, error)
	ColumnType(ctx context.Context, table, column string) (Type, error)
}

// sensitiveSuffixes are never derived as filterable columns.
var sensitiveSuffixes = []string{"_token", "password", "secret"}

var integerColumnTypes = map[string]struct{}{
	"integer": {}, "int": {}, "int2": {}, "int4": {}, "int8": {}, "bigint": {}, "smallint": {},
	"tinyint": {}, "mediumint": {}, "serial": {}, "bigserial": {}, "smallserial": {},
}

// MapColumnType maps a database column type name to a semantic Type.
func MapColumnType(dbType string) Type {
	t := strings.ToLower(strings.TrimSpace(dbType))
	if _, ok := integerColumnTypes[t]; ok {
		return TypeInteger
	}
	switch {
	case t == "array" || strings.HasSuffix(t, "[]"):
		return TypeArray
	case t == "boolean" || t == "bool":
		return TypeBoolean
	case t == "date", strings.HasPrefix(t, "timestamp"), strings.HasPrefix(t, "datetime"):
		return TypeDate
	case strings.HasPrefix(t, "decimal"), strings.HasPrefix(t, "numeric"),
		strings.HasPrefix(t, "float"), strings.HasPrefix(t, "double"), t == "real":
		return TypeFloat
	default:
		return TypeString
	}
}

// source tells whether descriptors were declared by the model or derived by the compiler.
type source int

const (
	declared source = iota
	derived
)

func (s source) String() string {
	if s == declared {
		return "declared"
	}
	return "derived"
}

type fieldSet struct {
	source source
	byName map[string]FieldDescriptor
}

func (s fieldSet) get(name string) (FieldDescriptor, bool) {
	f, ok := s.byName[name]
	return f, ok
}

func (s fieldSet) list() []FieldDescriptor {
	out := make([]FieldDescriptor, 0, len(s.byName))
	for _, name := range sortedKeys(s.byName) {
		out = append(out, s.byName[name])
	}
	return out
}

type relationSet struct {
	source source
	byName map[string]RelationDescriptor
}

func (s relationSet) get(name string) (RelationDescriptor, bool) {
	r, ok := s.byName[name]
	return r, ok
}

func (s relationSet) list() []RelationDescriptor {
	out := make([]RelationDescriptor, 0, len(s.byName))
	for _, name := range sortedKeys(s.byName) {
		out = append(out, s.byName[name])
	}
	return out
}

// fields resolves the allow-listed columns of m.
func (c *Compiler) fields(ctx context.Context, m Filterable) fieldSet {
	if custom := m.FilterableFields(); custom != nil {
		set := fieldSet{source: declared, byName: make(map[string]FieldDescriptor, len(custom))}
		for _, f := range custom {
			if f.Type == "" {
				f.Type = TypeString
			}
			if f.DefaultOperator == "" {
				f.DefaultOperator = Equal
			}
			set.byName[f.Name] = f
		}
		return set
	}
	return fieldSet{source: derived, byName: c.schemaFields(ctx, m.TableName())}
}

// schemaFields derives descriptors from table columns minus exclusions and sensitive columns.
func (c *Compiler) schemaFields(ctx context.Context, table string) map[string]FieldDescriptor {
	out := make(map[string]FieldDescriptor)
	if c.schema == nil {
		return out
	}

	columns, err := c.schema.ListColumns(ctx, table)
	if err != nil {
		c.log.WithContext(ctx).Warnw("list columns failed, no fields derived", "table", table, "error", err)
		return out
	}

	excluded := toSet(c.settings.ExcludedFields)
	for _, col := range columns {
		if _, skip := excluded[col]; skip || sensitive(col) {
			continue
		}
		t, err := c.schema.ColumnType(ctx, table, col)
		if err != nil {
			t = TypeString
		}
		out[col] = FieldDescriptor{Name: col, Type: t, DefaultOperator: c.settings.defaultOperator(t)}
	}
	return out
}

// relations resolves the allow-listed relations of m.
func (c *Compiler) relations(ctx context.Context, m Filterable) relationSet {
	if custom := m.FilterableRelations(); custom != nil {
		set := relationSet{source: declared, byName: make(map[string]RelationDescriptor, len(custom))}
		for _, r := range custom {
			set.byName[r.Name] = r
		}
		return set
	}
	return relationSet{source: derived, byName: c.discoverRelations(ctx, m)}
}

// discoverRelations turns *_id columns into relations when the model resolves them.
func (c *Compiler) discoverRelations(ctx context.Context, m Filterable) map[string]RelationDescriptor {
	out := make(map[string]RelationDescriptor)
	resolver, ok := m.(RelationResolver)
	if !ok || !c.settings.AutoDiscoverRelations || c.schema == nil {
		return out
	}

	columns, err := c.schema.ListColumns(ctx, m.TableName())
	if err != nil {
		c.log.WithContext(ctx).Warnw("list columns failed, no relations discovered", "table", m.TableName(), "error", err)
		return out
	}

	excluded := toSet(c.settings.ExcludedRelations)
	for _, col := range columns {
		if !strings.HasSuffix(col, "_id") {
			continue
		}
		name := camel(strings.TrimSuffix(col, "_id"))
		if _, skip := excluded[name]; skip {
			continue
		}
		rel, ok := resolver.Relation(name)
		if !ok || rel.Related == nil {
			continue
		}
		out[name] = RelationDescriptor{
			Name:          name,
			AllowedFields: c.relatedFieldNames(ctx, rel.Related),
			MaxDepth:      1,
		}
	}
	return out
}

// relatedFieldNames lists what a discovered relation allows on the related model.
func (c *Compiler) relatedFieldNames(ctx context.Context, related Model) []string {
	var byName map[string]FieldDescriptor
	if f, ok := related.(Filterable); ok {
		byName = c.fields(ctx, f).byName
	} else {
		byName = c.schemaFields(ctx, related.TableName())
	}
	// non-nil even when empty: an empty list allows nothing
	return sortedKeys(byName)
}

func sensitive(column string) bool {
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(column, suffix) {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// camel converts snake_case to camelCase ("parent_category" -> "parentCategory").
func camel(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		runes := []rune(p)
		if i > 0 && b.Len() > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		b.WriteString(string(runes))
	}
	return b.String()
}

// Description is the resolved allow-list of a model.
type Description struct {
	Model     string               `json:"model"`
	Source    string               `json:"source"`
	Fields    []FieldDescriptor    `json:"fields"`
	Relations []RelationDescriptor `json:"relations"`
}

// Describe resolves the filterable fields and relations of m.
func (c *Compiler) Describe(ctx context.Context, m Model) (Description, error) {
	f, err := filterable(m)
	if err != nil {
		return Description{}, err
	}
	fields := c.fields(ctx, f)
	rels := c.relations(ctx, f)

	return Description{
		Model:     m.TableName(),
		Source:    fields.source.String(),
		Fields:    fields.list(),
		Relations: rels.list(),
	}, nil
}
