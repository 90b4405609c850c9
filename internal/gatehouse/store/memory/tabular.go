package memory

import (
	"context"
	"sync"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

type table struct {
	header store.Row
	rows   []store.Row
}

// TabularStore is an in-memory sheet-like store. It is intended for
// tests and dev environments.
type TabularStore struct {
	mu     sync.RWMutex
	tables map[string]*table
}

func NewTabularStore() *TabularStore {
	return &TabularStore{tables: make(map[string]*table)}
}

func (s *TabularStore) CreateTable(_ context.Context, name string, header store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; ok {
		return nil
	}
	s.tables[name] = &table{header: cloneRow(header)}
	return nil
}

func (s *TabularStore) ReadAll(_ context.Context, name string) ([]store.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, store.ErrTableNotFound
	}
	out := make([]store.Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = cloneRow(r)
	}
	return out, nil
}

func (s *TabularStore) ReadRange(_ context.Context, name string, fromRow, count int) ([]store.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return nil, store.ErrTableNotFound
	}
	if fromRow < 0 {
		fromRow = 0
	}
	if fromRow >= len(t.rows) || count <= 0 {
		return nil, nil
	}
	end := fromRow + count
	if end > len(t.rows) {
		end = len(t.rows)
	}
	out := make([]store.Row, 0, end-fromRow)
	for _, r := range t.rows[fromRow:end] {
		out = append(out, cloneRow(r))
	}
	return out, nil
}

func (s *TabularStore) RowCount(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	if !ok {
		return 0, store.ErrTableNotFound
	}
	return len(t.rows), nil
}

func (s *TabularStore) AppendRow(_ context.Context, name string, row store.Row) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return 0, store.ErrTableNotFound
	}
	t.rows = append(t.rows, cloneRow(row))
	return len(t.rows) - 1, nil
}

func (s *TabularStore) UpdateCell(_ context.Context, name string, rowIdx, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return store.ErrTableNotFound
	}
	if rowIdx < 0 || rowIdx >= len(t.rows) {
		return store.ErrRowOutOfRange
	}
	row := t.rows[rowIdx]
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = value
	t.rows[rowIdx] = row
	return nil
}

func (s *TabularStore) ClearRows(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		return store.ErrTableNotFound
	}
	t.rows = nil
	return nil
}

// HasTable reports whether a table exists. Test-only helper.
func (s *TabularStore) HasTable(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tables[name]
	return ok
}

// TableNames returns the names of all created tables. Test-only helper.
func (s *TabularStore) TableNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	return names
}

func cloneRow(r store.Row) store.Row {
	out := make(store.Row, len(r))
	copy(out, r)
	return out
}
