package service_test

import (
	"context"
	"testing"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/service"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store/memory"
)

func testRoster() []store.Person {
	return []store.Person{
		{ID: "8-123-456", Name: "Dana Rivers", Organization: "Operations", Active: true},
		{ID: "9-555-001", Name: "Luis Mora", Organization: "Facilities", Active: true},
	}
}

func TestDirectoryLookup_ExactID(t *testing.T) {
	dir := service.NewDirectoryIndex(memory.NewPersonnelStore(testRoster()))

	p, ok, err := dir.Lookup(context.Background(), "8-123-456")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatal("expected a match for exact id")
	}
	if p.Name != "Dana Rivers" {
		t.Errorf("expected Dana Rivers, got %q", p.Name)
	}
}

func TestDirectoryLookup_NormalizedID(t *testing.T) {
	dir := service.NewDirectoryIndex(memory.NewPersonnelStore(testRoster()))

	// Same digits, different punctuation and spacing.
	p, ok, err := dir.Lookup(context.Background(), " 8123456 ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatal("expected a normalized match")
	}
	if p.ID != "8-123-456" {
		t.Errorf("expected 8-123-456, got %q", p.ID)
	}
}

func TestDirectoryLookup_SubstringByName(t *testing.T) {
	dir := service.NewDirectoryIndex(memory.NewPersonnelStore(testRoster()))

	p, ok, err := dir.Lookup(context.Background(), "luis")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatal("expected a substring match")
	}
	if p.ID != "9-555-001" {
		t.Errorf("expected 9-555-001, got %q", p.ID)
	}
}

func TestDirectoryLookup_MissTriggersRebuild(t *testing.T) {
	ps := memory.NewPersonnelStore(testRoster())
	dir := service.NewDirectoryIndex(ps)
	if err := dir.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	// Person added after the index was built: the miss must refresh the
	// index and find them.
	ps.Replace(append(testRoster(), store.Person{
		ID: "7-000-111", Name: "Ana Vega", Organization: "Security", Active: true,
	}))

	p, ok, err := dir.Lookup(context.Background(), "7-000-111")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatal("expected rebuild to pick up the new person")
	}
	if p.Name != "Ana Vega" {
		t.Errorf("expected Ana Vega, got %q", p.Name)
	}
	if dir.Size() != 3 {
		t.Errorf("expected 3 indexed people, got %d", dir.Size())
	}
}

func TestDirectoryLookup_NotFound(t *testing.T) {
	dir := service.NewDirectoryIndex(memory.NewPersonnelStore(testRoster()))

	_, ok, err := dir.Lookup(context.Background(), "no-such-person")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Error("expected no match")
	}
}

func TestDirectoryLookup_BlankText(t *testing.T) {
	dir := service.NewDirectoryIndex(memory.NewPersonnelStore(testRoster()))

	_, ok, err := dir.Lookup(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Error("expected no match for blank text")
	}
}
