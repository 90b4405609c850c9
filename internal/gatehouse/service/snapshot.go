package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/types"
)

// SnapshotInside replays the full active ledger and reports everyone
// with an open entry. A check-in without a check-out marks a person
// inside; any later exit row for the same identifier (including
// exit-only justified rows) clears them. Replay order is ledger order,
// so the snapshot is deterministic for a given ledger state.
//
// This is a read-only advisory view: it takes no engine lock, and a
// scan landing mid-read simply shows up in the next snapshot.
func (e *Engine) SnapshotInside(ctx context.Context) (types.InsideResponse, error) {
	entries, err := e.ledger.ReadAllEntries(ctx)
	if err != nil {
		return types.InsideResponse{}, err
	}

	now := e.now()
	open := make(map[string]store.AccessEvent)
	order := make([]string, 0)
	listed := make(map[string]bool)

	for _, entry := range entries {
		ev := entry.Event
		id := strings.TrimSpace(ev.ID)
		if id == "" {
			continue
		}
		switch {
		case ev.CheckOut != "":
			delete(open, id)
		case ev.CheckIn != "":
			// order must hold each identifier once even across
			// exit-then-re-entry alternation, so track listing
			// separately from the open set.
			if !listed[id] {
				listed[id] = true
				order = append(order, id)
			}
			open[id] = ev
		}
	}

	people := make([]types.InsidePerson, 0, len(open))
	clock := FormatClock(now)
	for _, id := range order {
		ev, ok := open[id]
		if !ok {
			continue // checked in earlier, left since
		}
		people = append(people, types.InsidePerson{
			ID:           id,
			Name:         ev.Name,
			Organization: ev.Organization,
			CheckIn:      ev.CheckIn,
			Elapsed:      Duration(ev.CheckIn, clock),
		})
	}

	return types.InsideResponse{
		OK:         true,
		Total:      len(people),
		People:     people,
		ServerTime: now.Format(time.RFC3339),
	}, nil
}

// Stats summarizes the recent ledger window: entry and exit counts, the
// current inside count from a full replay, exits recorded without a
// prior entry (excluding justified ones, which are expected to lack
// one), and the last few records newest first.
func (e *Engine) Stats(ctx context.Context) (types.StatsResponse, error) {
	now := e.now()

	inside, err := e.SnapshotInside(ctx)
	if err != nil {
		return types.StatsResponse{}, err
	}

	entries, err := e.ledger.ReadWindow(ctx, e.window)
	if err != nil {
		return types.StatsResponse{}, err
	}

	var s types.Stats
	s.Inside = inside.Total
	for _, entry := range entries {
		ev := entry.Event
		if ev.CheckIn != "" {
			s.Entries++
		}
		if ev.CheckOut != "" {
			s.Exits++
			if ev.CheckIn != "" {
				s.ValidExits++
			} else if ev.Status != store.StatusTemporary {
				s.ExitsWithoutEntry++
			}
		}
	}

	const recentMax = 10
	for i := len(entries) - 1; i >= 0 && len(s.Recent) < recentMax; i-- {
		ev := entries[i].Event
		rec := types.RecentRecord{
			ID:       ev.ID,
			Name:     ev.Name,
			Status:   ev.Status,
			Duration: ev.Duration,
		}
		if ev.CheckOut != "" {
			rec.Action = ActionCheckOut
			rec.Time = ev.CheckOut
		} else {
			rec.Action = ActionCheckIn
			rec.Time = ev.CheckIn
		}
		s.Recent = append(s.Recent, rec)
	}

	return types.StatsResponse{
		OK:         true,
		Stats:      s,
		ServerTime: now.Format(time.RFC3339),
	}, nil
}

// BulkCloseOut closes out a roster of identifiers at once, the
// evacuation path. Mode REAL closes each person's open entry in the
// main ledger exactly as an individual check-out would, scanning the
// whole ledger rather than the recent window. Mode SIMULACRO writes the
// roster to an isolated drill table and leaves the main ledger alone,
// so a drill never corrupts real presence state.
//
// Identifiers are processed independently: one failure (typically "no
// open entry") does not stop the rest. The response carries the
// processed count and the per-identifier errors.
func (e *Engine) BulkCloseOut(ctx context.Context, req types.EvacuationRequest) (types.EvacuationResponse, error) {
	mode := strings.ToUpper(strings.TrimSpace(req.Mode))
	if mode != types.EvacuationReal && mode != types.EvacuationDrill {
		return types.EvacuationResponse{}, fmt.Errorf("unknown evacuation mode %q", req.Mode)
	}
	if len(req.IDs) == 0 {
		return types.EvacuationResponse{}, ErrMissingID
	}

	if err := e.acquire(ctx); err != nil {
		return types.EvacuationResponse{}, err
	}
	defer e.release()

	now := e.now()
	resp := types.EvacuationResponse{
		Mode:       mode,
		ServerTime: now.Format(time.RFC3339),
	}

	if mode == types.EvacuationDrill {
		if err := e.runDrill(ctx, req.IDs, now, &resp); err != nil {
			return types.EvacuationResponse{}, err
		}
	} else {
		e.runRealEvacuation(ctx, req.IDs, now, &resp)
	}

	resp.OK = resp.Processed > 0 || len(resp.Errors) == 0
	if err := e.logEvacuation(ctx, now, mode, resp.Processed, len(req.IDs), req.Operator); err != nil {
		e.logger.Printf("evacuation summary log failed: %v", err)
	}
	e.logger.Printf("evacuation mode=%s processed=%d errors=%d", mode, resp.Processed, len(resp.Errors))
	return resp, nil
}

func (e *Engine) runRealEvacuation(ctx context.Context, ids []string, now time.Time, resp *types.EvacuationResponse) {
	entries, err := e.ledger.ReadAllEntries(ctx)
	if err != nil {
		resp.Errors = append(resp.Errors, fmt.Sprintf("ledger read: %v", err))
		return
	}

	// Last open entry per identifier wins, same rule as single check-out.
	openByID := make(map[string]store.LedgerEntry)
	for _, entry := range entries {
		ev := entry.Event
		id := strings.TrimSpace(ev.ID)
		if id == "" {
			continue
		}
		if ev.CheckOut != "" {
			delete(openByID, id)
			continue
		}
		if ev.CheckIn != "" {
			openByID[id] = entry
		}
	}

	clock := FormatClock(now)
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		entry, ok := openByID[id]
		if !ok {
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: no open entry", id))
			continue
		}
		dur := Duration(entry.Event.CheckIn, clock)
		if err := e.ledger.CloseOut(ctx, entry.Row, clock, dur); err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		resp.Processed++
	}
}

var drillHeader = store.Row{"ID", "Name", "Organization", "Check-Out", "Event Type"}

func (e *Engine) runDrill(ctx context.Context, ids []string, now time.Time, resp *types.EvacuationResponse) error {
	table := drillTablePrefix + now.Format("20060102_150405")
	if err := e.tab.CreateTable(ctx, table, drillHeader); err != nil {
		return fmt.Errorf("create drill table: %w", err)
	}
	resp.DrillTable = table

	clock := FormatClock(now)
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		name, org := "N/A", "N/A"
		if p, ok, err := e.directory.Lookup(ctx, id); err == nil && ok {
			name, org = p.Name, p.Organization
		}
		row := store.Row{id, name, org, clock, "DRILL"}
		if _, err := e.tab.AppendRow(ctx, table, row); err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		resp.Processed++
	}
	return nil
}

var evacuationLogHeader = store.Row{"Date", "Time", "Mode", "Processed", "Total", "Status", "Operator"}

// logEvacuation appends a one-line summary of the run to the
// evacuation log table, creating it on first use.
func (e *Engine) logEvacuation(ctx context.Context, now time.Time, mode string, processed, total int, operator string) error {
	if err := e.tab.CreateTable(ctx, evacuationLogTable, evacuationLogHeader); err != nil {
		return err
	}
	status := "COMPLETE"
	if processed < total {
		status = "PARTIAL"
	}
	row := store.Row{
		FormatDate(now),
		FormatClock(now),
		mode,
		fmt.Sprintf("%d", processed),
		fmt.Sprintf("%d", total),
		status,
		orDefault(operator, "N/A"),
	}
	_, err := e.tab.AppendRow(ctx, evacuationLogTable, row)
	return err
}
