// Package metadata derives table descriptions from tagged Go structs.
package metadata

import (
	"sort"
	"sync"

	"smartfilter/internal/domain/filter"
)

// EntityDef describes a table-backed entity.
type EntityDef struct {
	Name   string     `json:"name"`
	Table  string     `json:"table"`
	Fields []FieldDef `json:"fields"`
}

// FieldDef describes a column.
type FieldDef struct {
	Column   string      `json:"column"`
	JSONName string      `json:"jsonName"`
	Type     filter.Type `json:"type"`
	Nullable bool        `json:"nullable,omitempty"`
}

// Field returns the definition of column.
func (d EntityDef) Field(column string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Column == column {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Columns lists the column names in declaration order.
func (d EntityDef) Columns() []string {
	cols := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Registry stores entity definitions and the models they came from, keyed by table.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]EntityDef
	models   map[string]filter.Model
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]EntityDef),
		models:   make(map[string]filter.Model),
	}
}

// Register inspects model and stores its definition. Registering a table twice replaces it.
func (r *Registry) Register(model filter.Model) EntityDef {
	def := Inspect(model)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[def.Table] = def
	r.models[def.Table] = model
	return def
}

// Get returns the definition for table.
func (r *Registry) Get(table string) (EntityDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entities[table]
	return d, ok
}

// Model returns the registered model for table.
func (r *Registry) Model(table string) (filter.Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[table]
	return m, ok
}

// List returns all definitions ordered by table name.
func (r *Registry) List() []EntityDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]EntityDef, 0, len(r.entities))
	for _, def := range r.entities {
		list = append(list, def)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Table < list[j].Table })
	return list
}
