package service

import (
	"context"
	"strings"
	"time"
)

// PresenceState is the derived answer to "does this identifier have an
// open entry right now". It is recomputed per query, never cached.
type PresenceState struct {
	Found        bool
	Row          int
	CheckIn      string
	Name         string
	Organization string
}

// ResolveOpen scans a bounded window of the most recent ledger rows,
// newest first, for an open entry (check-in set, check-out empty)
// belonging to identifier on asOf's calendar date. Rows from other
// dates are skipped: entries are expected to resolve same-day, and an
// entry left open past midnight is invisible to this scan — a known
// limitation of the window heuristic, preserved deliberately.
//
// Found=false is not an error; it is the normal answer for anyone with
// no open entry. Storage failures are returned as errors and must never
// be read as "no open entry".
//
// If manual edits produce multiple open entries for one identifier, the
// most recent wins; older duplicates are left alone.
func (e *Engine) ResolveOpen(ctx context.Context, identifier string, asOf time.Time) (PresenceState, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return PresenceState{}, nil
	}

	entries, err := e.ledger.ReadWindow(ctx, e.window)
	if err != nil {
		return PresenceState{}, err
	}

	date := FormatDate(asOf)
	for i := len(entries) - 1; i >= 0; i-- {
		ev := entries[i].Event
		if strings.TrimSpace(ev.Date) != date {
			continue
		}
		if strings.TrimSpace(ev.ID) != identifier {
			continue
		}
		if ev.CheckIn == "" || ev.CheckOut != "" {
			continue
		}
		return PresenceState{
			Found:        true,
			Row:          entries[i].Row,
			CheckIn:      ev.CheckIn,
			Name:         ev.Name,
			Organization: ev.Organization,
		}, nil
	}
	return PresenceState{}, nil
}
