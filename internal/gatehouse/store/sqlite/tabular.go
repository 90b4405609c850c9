package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	dbpkg "github.com/gatehouse-project/gatehouse/internal/db"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

// TabularStore persists sheet-shaped tables in SQLite. Each table is a
// row in `sheets` plus ordered `sheet_rows` whose cells are a JSON
// array. Reads go straight to the connection; all writes are serialized
// through the db worker.
type TabularStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewTabularStore(db *sql.DB, writer *dbpkg.Worker) *TabularStore {
	return &TabularStore{db: db, writer: writer}
}

func (s *TabularStore) CreateTable(ctx context.Context, table string, header store.Row) error {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("CreateTable marshal header: %w", err)
	}
	nowMs := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO sheets(name, header_json, created_at_ms)
VALUES (?, ?, ?);
`, table, string(headerJSON), nowMs); err != nil {
			return fmt.Errorf("CreateTable insert: %w", err)
		}
		return nil
	})
}

func (s *TabularStore) exists(ctx context.Context, table string) error {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sheets WHERE name = ?;`, table).Scan(&name)
	if err == sql.ErrNoRows {
		return store.ErrTableNotFound
	}
	if err != nil {
		return fmt.Errorf("check table %s: %w", table, err)
	}
	return nil
}

func (s *TabularStore) ReadAll(ctx context.Context, table string) ([]store.Row, error) {
	if err := s.exists(ctx, table); err != nil {
		return nil, err
	}
	return s.queryRows(ctx, `
SELECT cells_json FROM sheet_rows
WHERE sheet = ?
ORDER BY row_idx;
`, table)
}

func (s *TabularStore) ReadRange(ctx context.Context, table string, fromRow, count int) ([]store.Row, error) {
	if err := s.exists(ctx, table); err != nil {
		return nil, err
	}
	if fromRow < 0 {
		fromRow = 0
	}
	if count <= 0 {
		return nil, nil
	}
	return s.queryRows(ctx, `
SELECT cells_json FROM sheet_rows
WHERE sheet = ? AND row_idx >= ? AND row_idx < ?
ORDER BY row_idx;
`, table, fromRow, fromRow+count)
}

func (s *TabularStore) queryRows(ctx context.Context, query string, args ...any) ([]store.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sheet rows: %w", err)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		var cellsJSON string
		if err := rows.Scan(&cellsJSON); err != nil {
			return nil, fmt.Errorf("scan sheet row: %w", err)
		}
		var cells store.Row
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return nil, fmt.Errorf("decode sheet row: %w", err)
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

func (s *TabularStore) RowCount(ctx context.Context, table string) (int, error) {
	if err := s.exists(ctx, table); err != nil {
		return 0, err
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sheet_rows WHERE sheet = ?;`, table).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("RowCount %s: %w", table, err)
	}
	return count, nil
}

func (s *TabularStore) AppendRow(ctx context.Context, table string, row store.Row) (int, error) {
	cellsJSON, err := json.Marshal(row)
	if err != nil {
		return 0, fmt.Errorf("AppendRow marshal: %w", err)
	}

	var idx int
	err = s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var name string
		err := tx.QueryRowContext(ctx,
			`SELECT name FROM sheets WHERE name = ?;`, table).Scan(&name)
		if err == sql.ErrNoRows {
			return store.ErrTableNotFound
		}
		if err != nil {
			return fmt.Errorf("AppendRow check table: %w", err)
		}

		var next sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MAX(row_idx) + 1 FROM sheet_rows WHERE sheet = ?;`, table).Scan(&next); err != nil {
			return fmt.Errorf("AppendRow next idx: %w", err)
		}
		if next.Valid {
			idx = int(next.Int64)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO sheet_rows(sheet, row_idx, cells_json) VALUES (?, ?, ?);
`, table, idx, string(cellsJSON)); err != nil {
			return fmt.Errorf("AppendRow insert: %w", err)
		}
		return nil
	})
	return idx, err
}

func (s *TabularStore) UpdateCell(ctx context.Context, table string, rowIdx, col int, value string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var cellsJSON string
		err := tx.QueryRowContext(ctx, `
SELECT cells_json FROM sheet_rows WHERE sheet = ? AND row_idx = ?;
`, table, rowIdx).Scan(&cellsJSON)
		if err == sql.ErrNoRows {
			if existsErr := txTableExists(ctx, tx, table); existsErr != nil {
				return existsErr
			}
			return store.ErrRowOutOfRange
		}
		if err != nil {
			return fmt.Errorf("UpdateCell read row: %w", err)
		}

		var cells store.Row
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return fmt.Errorf("UpdateCell decode row: %w", err)
		}
		for len(cells) <= col {
			cells = append(cells, "")
		}
		cells[col] = value

		updated, err := json.Marshal(cells)
		if err != nil {
			return fmt.Errorf("UpdateCell marshal row: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE sheet_rows SET cells_json = ? WHERE sheet = ? AND row_idx = ?;
`, string(updated), table, rowIdx); err != nil {
			return fmt.Errorf("UpdateCell write row: %w", err)
		}
		return nil
	})
}

func (s *TabularStore) ClearRows(ctx context.Context, table string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := txTableExists(ctx, tx, table); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM sheet_rows WHERE sheet = ?;`, table); err != nil {
			return fmt.Errorf("ClearRows %s: %w", table, err)
		}
		return nil
	})
}

func txTableExists(ctx context.Context, tx *sql.Tx, table string) error {
	var name string
	err := tx.QueryRowContext(ctx,
		`SELECT name FROM sheets WHERE name = ?;`, table).Scan(&name)
	if err == sql.ErrNoRows {
		return store.ErrTableNotFound
	}
	if err != nil {
		return fmt.Errorf("check table %s: %w", table, err)
	}
	return nil
}
