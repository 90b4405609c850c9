package sqlite_test

import (
	"context"
	"testing"

	"github.com/gatehouse-project/gatehouse/internal/db"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store/sqlite"
)

func TestPersonnelReadAll(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	err := db.SeedDev(ctx, conn, db.SeedDevOptions{People: map[string]string{
		"8-123-456": "Dana Rivers|Operations",
	}})
	if err != nil {
		t.Fatalf("SeedDev: %v", err)
	}

	people, err := sqlite.NewPersonnelStore(conn).ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(people) != 1 {
		t.Fatalf("expected 1 person, got %d", len(people))
	}
	p := people[0]
	if p.ID != "8-123-456" || p.Name != "Dana Rivers" || p.Organization != "Operations" {
		t.Errorf("unexpected person: %+v", p)
	}
	if !p.Active {
		t.Error("expected active=true")
	}
}

func TestPersonnelReadAll_Empty(t *testing.T) {
	conn := openTestDB(t)

	people, err := sqlite.NewPersonnelStore(conn).ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(people) != 0 {
		t.Errorf("expected empty roster, got %d", len(people))
	}
}
