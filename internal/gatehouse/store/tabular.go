package store

import (
	"context"
	"errors"
)

var (
	// ErrTableNotFound is returned when an operation references a table
	// that has not been created.
	ErrTableNotFound = errors.New("table not found")

	// ErrRowOutOfRange is returned by UpdateCell for a row index outside
	// the table's current data rows.
	ErrRowOutOfRange = errors.New("row index out of range")
)

// Row is a single record of string cells. Cell meaning is positional;
// callers resolve positions through a ColumnMap rather than assuming
// a fixed layout.
type Row []string

// TabularStore is the persistence collaborator: a minimal sheet-like
// surface over named tables of rows. The header is fixed at table
// creation and kept apart from data rows; row indices count data rows
// only. Implementations must treat AppendRow as append-only and
// UpdateCell as the only in-place mutation.
type TabularStore interface {
	// ReadAll returns every data row (header excluded) of table.
	ReadAll(ctx context.Context, table string) ([]Row, error)

	// ReadRange returns up to count data rows starting at fromRow
	// (0-based, header excluded). A fromRow past the end yields an
	// empty slice, not an error.
	ReadRange(ctx context.Context, table string, fromRow, count int) ([]Row, error)

	// RowCount returns the number of data rows in table.
	RowCount(ctx context.Context, table string) (int, error)

	// AppendRow adds row at the end of table and returns its 0-based
	// data-row index.
	AppendRow(ctx context.Context, table string, row Row) (int, error)

	// UpdateCell overwrites a single cell of an existing data row.
	UpdateCell(ctx context.Context, table string, rowIdx, col int, value string) error

	// CreateTable creates table with the given header row. Creating a
	// table that already exists is a no-op.
	CreateTable(ctx context.Context, table string, header Row) error

	// ClearRows removes every data row of table, keeping the header.
	ClearRows(ctx context.Context, table string) error
}
