package service

import (
	"context"
	"time"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/types"
)

// CloseShift ends the active shift: the whole ledger is exported
// through the configured sink and then cleared. The archive keeps its
// mirrored copies, so clearing the active table loses nothing.
//
// Export runs before the clear, and a failed export aborts the close so
// the ledger is never dropped without a copy landing somewhere.
func (e *Engine) CloseShift(ctx context.Context, req types.ShiftCloseRequest) (types.ShiftCloseResponse, error) {
	if err := e.acquire(ctx); err != nil {
		return types.ShiftCloseResponse{}, err
	}
	defer e.release()

	now := e.now()

	rows, err := e.ledger.ReadAllRows(ctx)
	if err != nil {
		return types.ShiftCloseResponse{}, err
	}

	name := "shift_close_" + now.Format("20060102_150405")
	location, err := e.sink.Export(name, e.ledger.Header(), rows)
	if err != nil {
		return types.ShiftCloseResponse{}, err
	}

	if err := e.ledger.Clear(ctx); err != nil {
		return types.ShiftCloseResponse{}, err
	}

	e.logger.Printf("shift closed rows=%d location=%s operator=%s", len(rows), location, orDefault(req.Operator, "N/A"))
	return types.ShiftCloseResponse{
		OK:         true,
		Rows:       len(rows),
		Location:   location,
		ServerTime: now.Format(time.RFC3339),
	}, nil
}
