// Package memory provides an in-process table store with a filter.Queryable
// implementation. It backs the demo server without a database and the
// compiler's scenario tests.
package memory

import (
	"sync"

	"smartfilter/internal/domain/filter"
	"smartfilter/internal/metadata"
)

// Record is one row keyed by column name.
type Record map[string]any

// snapshot is a consistent view of all tables taken at query time.
type snapshot map[string][]Record

// Store holds tables of records. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{tables: make(map[string][]Record)}
}

// Insert appends rows to table.
func (s *Store) Insert(table string, rows ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], rows...)
}

// InsertStruct appends entities using their db tags as columns.
func (s *Store) InsertStruct(entities ...filter.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entities {
		s.tables[e.TableName()] = append(s.tables[e.TableName()], Record(metadata.StructToMap(e)))
	}
}

// Rows returns the records of table in insertion order.
func (s *Store) Rows(table string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record(nil), s.tables[table]...)
}

// Truncate removes all rows of table.
func (s *Store) Truncate(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, table)
}

// Query starts a query over the table of m.
func (s *Store) Query(m filter.Model) *Query {
	return newQuery(s, m, 0)
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(snapshot, len(s.tables))
	for name, rows := range s.tables {
		snap[name] = rows[:len(rows):len(rows)]
	}
	return snap
}
