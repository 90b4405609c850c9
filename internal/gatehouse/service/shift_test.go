package service_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/service"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store/memory"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/types"
)

// recordingSink captures the last export so tests can inspect it.
type recordingSink struct {
	name   string
	header store.Row
	rows   []store.Row
	err    error
}

func (s *recordingSink) Export(name string, header store.Row, rows []store.Row) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.name = name
	s.header = header
	s.rows = rows
	return "memory://" + name, nil
}

func newShiftTestEngine(t *testing.T, sink *recordingSink) *testEngine {
	t.Helper()

	tab := memory.NewTabularStore()
	ledger := store.NewLedger(tab, testLedgerTable, testArchiveTable, store.DefaultColumns())
	if err := ledger.EnsureTables(context.Background()); err != nil {
		t.Fatalf("EnsureTables: %v", err)
	}

	clock := &testClock{now: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)}
	ps := memory.NewPersonnelStore(testRoster())
	dir := service.NewDirectoryIndex(ps)
	eng := service.NewEngine(ledger, tab, dir, sink, log.New(io.Discard, "", 0), service.Options{
		Now: clock.Now,
	})
	return &testEngine{engine: eng, tab: tab, ledger: ledger, people: ps, clock: clock}
}

func TestCloseShift_ExportsThenClears(t *testing.T) {
	sink := &recordingSink{}
	te := newShiftTestEngine(t, sink)
	ctx := context.Background()

	mustScan(t, te, "8-123-456", service.ActionCheckIn)
	te.clock.Advance(time.Hour)
	mustScan(t, te, "9-555-001", service.ActionCheckIn)

	resp, err := te.engine.CloseShift(ctx, types.ShiftCloseRequest{Operator: "guard-7"})
	if err != nil {
		t.Fatalf("CloseShift: %v", err)
	}
	if resp.Rows != 2 {
		t.Errorf("expected 2 exported rows, got %d", resp.Rows)
	}
	if resp.Location != "memory://shift_close_20260901_090000" {
		t.Errorf("unexpected export location: %s", resp.Location)
	}
	if len(sink.rows) != 2 {
		t.Errorf("expected 2 rows handed to the sink, got %d", len(sink.rows))
	}

	count, err := te.ledger.RowCount(ctx)
	if err != nil {
		t.Fatalf("RowCount: %v", err)
	}
	if count != 0 {
		t.Errorf("expected cleared ledger, got %d rows", count)
	}

	// Archive mirror survives the clear.
	archive, err := te.tab.ReadAll(ctx, testArchiveTable)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(archive) != 2 {
		t.Errorf("expected archive to keep 2 rows, got %d", len(archive))
	}
}

func TestCloseShift_FailedExportKeepsLedger(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	te := newShiftTestEngine(t, sink)
	ctx := context.Background()

	mustScan(t, te, "8-123-456", service.ActionCheckIn)

	if _, err := te.engine.CloseShift(ctx, types.ShiftCloseRequest{}); err == nil {
		t.Fatal("expected export failure to surface")
	}

	count, err := te.ledger.RowCount(ctx)
	if err != nil {
		t.Fatalf("RowCount: %v", err)
	}
	if count != 1 {
		t.Errorf("expected ledger untouched after failed export, got %d rows", count)
	}
}
