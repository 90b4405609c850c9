package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// People maps person_id -> "name|organization" for quick dev rosters.
	People map[string]string
}

// SeedDev inserts a small personnel roster so a dev instance can resolve
// scans without an external directory sync. Prod rosters come from the
// directory process only.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	if len(opt.People) == 0 {
		opt.People = map[string]string{
			"8-123-456": "Dana Rivers|Gatehouse Ops",
			"9-555-001": "Luis Mora|Facilities",
		}
	}

	for id, nameOrg := range opt.People {
		name, org := splitNameOrg(nameOrg)
		if _, err := db.ExecContext(ctx, `
INSERT INTO personnel(person_id, name, organization, active, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, 1, ?, ?)
ON CONFLICT(person_id) DO UPDATE SET
  name = excluded.name,
  organization = excluded.organization,
  active = 1,
  updated_at_ms = excluded.updated_at_ms;
`, id, name, org, now, now); err != nil {
			return fmt.Errorf("seed person %s: %w", id, err)
		}
	}

	return nil
}

func splitNameOrg(v string) (name, org string) {
	for i := 0; i < len(v); i++ {
		if v[i] == '|' {
			return v[:i], v[i+1:]
		}
	}
	return v, ""
}
