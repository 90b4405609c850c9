package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

// PersonnelStore reads the synced personnel roster. The reconciliation
// engine only ever reads it wholesale; writes belong to the external
// directory sync.
type PersonnelStore struct {
	db *sql.DB
}

func NewPersonnelStore(db *sql.DB) *PersonnelStore {
	return &PersonnelStore{db: db}
}

func (s *PersonnelStore) ReadAll(ctx context.Context) ([]store.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT person_id, name, organization, area, role, active
FROM personnel
ORDER BY person_id;
`)
	if err != nil {
		return nil, fmt.Errorf("personnel read: %w", err)
	}
	defer rows.Close()

	var people []store.Person
	for rows.Next() {
		var p store.Person
		var active int
		if err := rows.Scan(&p.ID, &p.Name, &p.Organization, &p.Area, &p.Role, &active); err != nil {
			return nil, fmt.Errorf("personnel scan: %w", err)
		}
		p.Active = active == 1
		people = append(people, p)
	}
	return people, rows.Err()
}
