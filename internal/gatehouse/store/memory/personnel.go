package memory

import (
	"context"
	"sync"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

// PersonnelStore serves a fixed roster from memory.
type PersonnelStore struct {
	mu     sync.RWMutex
	people []store.Person
}

func NewPersonnelStore(people []store.Person) *PersonnelStore {
	return &PersonnelStore{people: people}
}

func (s *PersonnelStore) ReadAll(_ context.Context) ([]store.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Person, len(s.people))
	copy(out, s.people)
	return out, nil
}

// Replace swaps the roster wholesale, simulating a directory sync.
// Test-only helper.
func (s *PersonnelStore) Replace(people []store.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people = people
}
