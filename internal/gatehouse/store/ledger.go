package store

import (
	"context"
	"fmt"
)

// Access-status labels written to the ledger's status column.
const (
	StatusPermitted    = "Permitted"
	StatusTemporary    = "Temporary"
	StatusDenied       = "Denied"
	StatusExitRecorded = "Exit Recorded"
)

// ColumnMap resolves ledger field names to column positions. It is
// supplied at construction by whoever knows the table layout; the
// engine itself never assumes positions.
type ColumnMap struct {
	Date         int
	ID           int
	Name         int
	Status       int
	CheckIn      int
	CheckOut     int
	Duration     int
	Organization int
	Comment      int
}

// DefaultColumns matches the canonical ledger layout:
// Date, ID, Name, Status, Check-In, Check-Out, Duration, Organization, Comment.
func DefaultColumns() ColumnMap {
	return ColumnMap{
		Date:         0,
		ID:           1,
		Name:         2,
		Status:       3,
		CheckIn:      4,
		CheckOut:     5,
		Duration:     6,
		Organization: 7,
		Comment:      8,
	}
}

func (c ColumnMap) width() int {
	w := 0
	for _, idx := range []int{c.Date, c.ID, c.Name, c.Status, c.CheckIn, c.CheckOut, c.Duration, c.Organization, c.Comment} {
		if idx+1 > w {
			w = idx + 1
		}
	}
	return w
}

// Header renders the canonical header row for a freshly created ledger
// or archive table.
func (c ColumnMap) Header() Row {
	h := make(Row, c.width())
	h[c.Date] = "Date"
	h[c.ID] = "ID"
	h[c.Name] = "Name"
	h[c.Status] = "Access Status"
	h[c.CheckIn] = "Check-In"
	h[c.CheckOut] = "Check-Out"
	h[c.Duration] = "Duration"
	h[c.Organization] = "Organization"
	h[c.Comment] = "Comment"
	return h
}

// AccessEvent is one ledger row in typed form. A row with CheckIn set
// and CheckOut empty is an open entry; both set means closed. Dates are
// "2006-01-02", times "15:04:05", durations "H:MM:SS".
type AccessEvent struct {
	Date         string
	ID           string
	Name         string
	Status       string
	CheckIn      string
	CheckOut     string
	Duration     string
	Organization string
	Comment      string
}

// LedgerEntry pairs an event with the data-row index it was read from,
// so callers can mutate the same row later.
type LedgerEntry struct {
	Row   int
	Event AccessEvent
}

// Ledger adapts a TabularStore into an append-only access-event log.
// Every append is mirrored into the archive table; rows in the active
// table are only ever mutated to fill in a missing check-out, duration
// or comment.
type Ledger struct {
	tab     TabularStore
	table   string
	archive string
	cols    ColumnMap
}

func NewLedger(tab TabularStore, table, archive string, cols ColumnMap) *Ledger {
	return &Ledger{tab: tab, table: table, archive: archive, cols: cols}
}

// EnsureTables creates the active and archive tables if missing.
func (l *Ledger) EnsureTables(ctx context.Context) error {
	if err := l.tab.CreateTable(ctx, l.table, l.cols.Header()); err != nil {
		return fmt.Errorf("create ledger table: %w", err)
	}
	if err := l.tab.CreateTable(ctx, l.archive, l.cols.Header()); err != nil {
		return fmt.Errorf("create archive table: %w", err)
	}
	return nil
}

func (l *Ledger) toRow(ev AccessEvent) Row {
	row := make(Row, l.cols.width())
	row[l.cols.Date] = ev.Date
	row[l.cols.ID] = ev.ID
	row[l.cols.Name] = ev.Name
	row[l.cols.Status] = ev.Status
	row[l.cols.CheckIn] = ev.CheckIn
	row[l.cols.CheckOut] = ev.CheckOut
	row[l.cols.Duration] = ev.Duration
	row[l.cols.Organization] = ev.Organization
	row[l.cols.Comment] = ev.Comment
	return row
}

func (l *Ledger) fromRow(row Row) AccessEvent {
	cell := func(idx int) string {
		if idx >= 0 && idx < len(row) {
			return row[idx]
		}
		return ""
	}
	return AccessEvent{
		Date:         cell(l.cols.Date),
		ID:           cell(l.cols.ID),
		Name:         cell(l.cols.Name),
		Status:       cell(l.cols.Status),
		CheckIn:      cell(l.cols.CheckIn),
		CheckOut:     cell(l.cols.CheckOut),
		Duration:     cell(l.cols.Duration),
		Organization: cell(l.cols.Organization),
		Comment:      cell(l.cols.Comment),
	}
}

// Append writes ev to the active ledger and mirrors it into the archive.
// If ev renders identically to the last existing row, nothing is written
// and duplicate=true is returned; double submissions are treated as
// idempotent success, not an error.
func (l *Ledger) Append(ctx context.Context, ev AccessEvent) (rowIdx int, duplicate bool, err error) {
	row := l.toRow(ev)

	count, err := l.tab.RowCount(ctx, l.table)
	if err != nil {
		return 0, false, fmt.Errorf("ledger row count: %w", err)
	}
	if count > 0 {
		last, err := l.tab.ReadRange(ctx, l.table, count-1, 1)
		if err != nil {
			return 0, false, fmt.Errorf("ledger read last row: %w", err)
		}
		if len(last) == 1 && rowsEqual(row, last[0]) {
			return count - 1, true, nil
		}
	}

	idx, err := l.tab.AppendRow(ctx, l.table, row)
	if err != nil {
		return 0, false, fmt.Errorf("ledger append: %w", err)
	}
	if _, err := l.tab.AppendRow(ctx, l.archive, row); err != nil {
		return 0, false, fmt.Errorf("archive append: %w", err)
	}
	return idx, false, nil
}

// ReadWindow returns up to max of the most recent entries, oldest first.
func (l *Ledger) ReadWindow(ctx context.Context, max int) ([]LedgerEntry, error) {
	count, err := l.tab.RowCount(ctx, l.table)
	if err != nil {
		return nil, fmt.Errorf("ledger row count: %w", err)
	}
	from := 0
	if max > 0 && count > max {
		from = count - max
	}
	rows, err := l.tab.ReadRange(ctx, l.table, from, count-from)
	if err != nil {
		return nil, fmt.Errorf("ledger read window: %w", err)
	}
	entries := make([]LedgerEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LedgerEntry{Row: from + i, Event: l.fromRow(row)})
	}
	return entries, nil
}

// ReadAllEntries returns the whole active ledger, oldest first.
func (l *Ledger) ReadAllEntries(ctx context.Context) ([]LedgerEntry, error) {
	rows, err := l.tab.ReadAll(ctx, l.table)
	if err != nil {
		return nil, fmt.Errorf("ledger read all: %w", err)
	}
	entries := make([]LedgerEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LedgerEntry{Row: i, Event: l.fromRow(row)})
	}
	return entries, nil
}

// ReadAllRows returns the raw data rows of the active ledger, for
// export.
func (l *Ledger) ReadAllRows(ctx context.Context) ([]Row, error) {
	rows, err := l.tab.ReadAll(ctx, l.table)
	if err != nil {
		return nil, fmt.Errorf("ledger read all rows: %w", err)
	}
	return rows, nil
}

// CloseOut fills the check-out and duration cells of an existing open
// row in place and mirrors the now-closed row into the archive.
func (l *Ledger) CloseOut(ctx context.Context, rowIdx int, checkOut, duration string) error {
	if err := l.tab.UpdateCell(ctx, l.table, rowIdx, l.cols.CheckOut, checkOut); err != nil {
		return fmt.Errorf("ledger set check-out: %w", err)
	}
	if err := l.tab.UpdateCell(ctx, l.table, rowIdx, l.cols.Duration, duration); err != nil {
		return fmt.Errorf("ledger set duration: %w", err)
	}
	rows, err := l.tab.ReadRange(ctx, l.table, rowIdx, 1)
	if err != nil {
		return fmt.Errorf("ledger reread closed row: %w", err)
	}
	if len(rows) == 1 {
		if _, err := l.tab.AppendRow(ctx, l.archive, rows[0]); err != nil {
			return fmt.Errorf("archive closed row: %w", err)
		}
	}
	return nil
}

// RowCount reports the number of data rows in the active ledger.
func (l *Ledger) RowCount(ctx context.Context) (int, error) {
	return l.tab.RowCount(ctx, l.table)
}

// Clear removes every data row from the active ledger. Archive rows are
// untouched; they were mirrored at write time.
func (l *Ledger) Clear(ctx context.Context) error {
	return l.tab.ClearRows(ctx, l.table)
}

// Header exposes the ledger header row for export.
func (l *Ledger) Header() Row { return l.cols.Header() }

func rowsEqual(a, b Row) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	cell := func(r Row, i int) string {
		if i < len(r) {
			return r[i]
		}
		return ""
	}
	for i := 0; i < n; i++ {
		if cell(a, i) != cell(b, i) {
			return false
		}
	}
	return true
}
