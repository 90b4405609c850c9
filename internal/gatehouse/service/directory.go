package service

import (
	"context"
	"strings"
	"sync"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

type directoryEntry struct {
	person       store.Person
	normalizedID string // identifier stripped to digits, "" if none
	searchBlob   string // "<id> <name> <organization>", lowercased
}

// DirectoryIndex is the in-memory personnel lookup. It is read-mostly
// and rebuilt wholesale from the personnel store — never patched
// incrementally — so concurrent rebuilds are idempotent (last one wins).
type DirectoryIndex struct {
	personnel store.PersonnelStore

	mu      sync.RWMutex
	byID    map[string]directoryEntry
	ordered []string // identifiers in roster order, for deterministic fuzzy scans
	built   bool
}

func NewDirectoryIndex(personnel store.PersonnelStore) *DirectoryIndex {
	return &DirectoryIndex{
		personnel: personnel,
		byID:      make(map[string]directoryEntry),
	}
}

// Rebuild replaces the whole index from the personnel store.
func (d *DirectoryIndex) Rebuild(ctx context.Context) error {
	people, err := d.personnel.ReadAll(ctx)
	if err != nil {
		return err
	}

	byID := make(map[string]directoryEntry, len(people))
	ordered := make([]string, 0, len(people))
	for _, p := range people {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			continue
		}
		p.ID = id
		if _, dup := byID[id]; dup {
			continue
		}
		byID[id] = directoryEntry{
			person:       p,
			normalizedID: digitsOnly(id),
			searchBlob:   strings.ToLower(id + " " + p.Name + " " + p.Organization),
		}
		ordered = append(ordered, id)
	}

	d.mu.Lock()
	d.byID = byID
	d.ordered = ordered
	d.built = true
	d.mu.Unlock()
	return nil
}

// Lookup resolves free text to a person: exact identifier match first,
// then a digits-only normalized match (tolerating punctuation and
// spacing), then a case-insensitive substring match against the
// "<id> <name> <organization>" search blob. On a miss the index is
// rebuilt and the lookup retried exactly once before concluding
// not-found.
func (d *DirectoryIndex) Lookup(ctx context.Context, text string) (store.Person, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return store.Person{}, false, nil
	}

	if p, ok := d.find(text); ok {
		return p, true, nil
	}

	if err := d.Rebuild(ctx); err != nil {
		return store.Person{}, false, err
	}
	if p, ok := d.find(text); ok {
		return p, true, nil
	}
	return store.Person{}, false, nil
}

// Size reports how many people are indexed.
func (d *DirectoryIndex) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

func (d *DirectoryIndex) find(text string) (store.Person, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if entry, ok := d.byID[text]; ok {
		return entry.person, true
	}

	if norm := digitsOnly(text); norm != "" {
		for _, id := range d.ordered {
			if d.byID[id].normalizedID == norm {
				return d.byID[id].person, true
			}
		}
	}

	query := strings.ToLower(text)
	for _, id := range d.ordered {
		if strings.Contains(d.byID[id].searchBlob, query) {
			return d.byID[id].person, true
		}
	}
	return store.Person{}, false
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
