// Package export delivers finalized roster data to the outside world.
// The reconciliation engine only hands a sink a header and rows; what a
// sink does with them (file, mail, upload) is its own business.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
)

// Sink accepts a named set of rows and returns a location string
// describing where they ended up.
type Sink interface {
	Export(name string, header store.Row, rows []store.Row) (string, error)
}

// CSVSink writes each export as a CSV file under Dir.
type CSVSink struct {
	Dir string
}

func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{Dir: dir}
}

func (s *CSVSink) Export(name string, header store.Row, rows []store.Row) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir export dir: %w", err)
	}

	path := filepath.Join(s.Dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write export header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush export: %w", err)
	}
	return path, nil
}

// DiscardSink drops everything. Useful when no export delivery is
// configured.
type DiscardSink struct{}

func (DiscardSink) Export(string, store.Row, []store.Row) (string, error) {
	return "", nil
}
