package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gatehouse-project/gatehouse/internal/export"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/types"
)

var (
	ErrMissingID     = errors.New("id is required")
	ErrInvalidAction = errors.New("action must be check-in or check-out")

	// ErrBusy means the engine lock could not be acquired within the
	// configured wait; the caller should retry.
	ErrBusy = errors.New("engine busy, retry")

	// ErrUnknownPerson is returned by CompleteJustified when the
	// identifier is not in the directory; justified exits are for known
	// personnel only (unknown people go through visitor registration).
	ErrUnknownPerson = errors.New("person not found in directory")

	// ErrMissingInput is returned when a completion request lacks the
	// input it exists to provide.
	ErrMissingInput = errors.New("required input missing")
)

// temporaryMarkers is the comment vocabulary that forces a record into
// Temporary status, matched case-insensitively as substrings.
var temporaryMarkers = []string{"VISITOR", "JUSTIFIED", "EVACUATION", "NO PRIOR ENTRY"}

func hasTemporaryMarker(comment string) bool {
	upper := strings.ToUpper(comment)
	for _, m := range temporaryMarkers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return false
}

const (
	defaultWindowSize = 100
	defaultLockWait   = 20 * time.Second

	drillTablePrefix   = "Drill_"
	evacuationLogTable = "Evacuations"
)

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	// WindowSize caps how many recent ledger rows presence resolution
	// and the stats view scan. The evacuation paths always read the
	// full ledger.
	WindowSize int

	// LockWait bounds how long a request waits for the engine lock
	// before failing with ErrBusy.
	LockWait time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine is the access-event reconciliation engine. Each scan runs
// under a single engine-wide lock so that presence resolution and the
// subsequent commit are atomic with respect to other scans — the
// ledger is a shared, non-transactional append target, and two
// concurrent scans must not both observe "no open entry".
type Engine struct {
	ledger    *store.Ledger
	tab       store.TabularStore
	directory *DirectoryIndex
	sink      export.Sink
	logger    *log.Logger

	lock     *semaphore.Weighted
	lockWait time.Duration
	window   int
	now      func() time.Time
}

func NewEngine(
	ledger *store.Ledger,
	tab store.TabularStore,
	directory *DirectoryIndex,
	sink export.Sink,
	logger *log.Logger,
	opts Options,
) *Engine {
	if opts.WindowSize <= 0 {
		opts.WindowSize = defaultWindowSize
	}
	if opts.LockWait <= 0 {
		opts.LockWait = defaultLockWait
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now() }
	}
	if sink == nil {
		sink = export.DiscardSink{}
	}
	return &Engine{
		ledger:    ledger,
		tab:       tab,
		directory: directory,
		sink:      sink,
		logger:    logger,
		lock:      semaphore.NewWeighted(1),
		lockWait:  opts.LockWait,
		window:    opts.WindowSize,
		now:       opts.Now,
	}
}

// acquire takes the engine lock with a bounded wait. Callers must
// release() on every exit path. A caller that gave up before the wait
// elapsed gets its own context error back, not ErrBusy.
func (e *Engine) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, e.lockWait)
	defer cancel()
	if err := e.lock.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBusy
	}
	return nil
}

func (e *Engine) release() { e.lock.Release(1) }

// Scan reconciles one check-in/check-out request against the ledger.
// Outcomes that need more input (visitor registration, justification)
// return with RequiresInput set and write nothing; the caller completes
// them via CompleteVisitor or CompleteJustified.
func (e *Engine) Scan(ctx context.Context, req types.ScanRequest) (types.ScanResponse, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return types.ScanResponse{}, ErrMissingID
	}
	if req.Action != ActionCheckIn && req.Action != ActionCheckOut {
		return types.ScanResponse{}, ErrInvalidAction
	}

	if err := e.acquire(ctx); err != nil {
		return types.ScanResponse{}, err
	}
	defer e.release()

	now := e.now()

	person, known, err := e.directory.Lookup(ctx, id)
	if err != nil {
		return types.ScanResponse{}, err
	}
	open, err := e.ResolveOpen(ctx, id, now)
	if err != nil {
		return types.ScanResponse{}, err
	}

	dec := Classify(known, open.Found, req.Action)
	resp := types.ScanResponse{
		OK:            dec.Commit || dec.Duplicate,
		Flow:          dec.Flow,
		Status:        dec.Status,
		RequiresInput: dec.RequiresInput,
		InputKind:     dec.InputKind,
		ServerTime:    now.Format(time.RFC3339),
	}

	switch {
	case dec.RequiresInput:
		// No write until the input arrives.
		resp.Status = "" // status is tentative, not assigned yet
		if known {
			resp.Name = person.Name
			resp.Organization = person.Organization
		}
		e.logger.Printf("scan id=%s action=%s flow=%s (awaiting %s)", id, req.Action, dec.Flow, dec.InputKind)
		return resp, nil

	case dec.Duplicate:
		// Duplicate check-in: surface the existing open entry, write nothing.
		resp.Duplicate = true
		resp.Name = open.Name
		resp.Organization = open.Organization
		resp.CheckIn = open.CheckIn
		e.logger.Printf("scan id=%s action=%s flow=%s open_since=%s", id, req.Action, dec.Flow, open.CheckIn)
		return resp, nil

	case req.Action == ActionCheckOut:
		// Close the open entry in place.
		clock := FormatClock(now)
		dur := Duration(open.CheckIn, clock)
		if err := e.ledger.CloseOut(ctx, open.Row, clock, dur); err != nil {
			return types.ScanResponse{}, err
		}
		resp.Name = open.Name
		resp.Organization = open.Organization
		resp.CheckIn = open.CheckIn
		resp.CheckOut = clock
		resp.Duration = dur
		e.logger.Printf("scan id=%s action=%s flow=%s duration=%s", id, req.Action, dec.Flow, dur)
		return resp, nil

	default:
		// Ordinary check-in for a known person.
		res, err := e.commit(ctx, commitParams{
			ID:           id,
			Name:         person.Name,
			Organization: person.Organization,
			CheckIn:      FormatClock(now),
			Action:       ActionCheckIn,
			Comment:      req.Comment,
			At:           now,
		})
		if err != nil {
			return types.ScanResponse{}, err
		}
		resp.Duplicate = res.Duplicate
		resp.Status = res.Status
		resp.Name = person.Name
		resp.Organization = person.Organization
		resp.CheckIn = FormatClock(now)
		e.logger.Printf("scan id=%s action=%s flow=%s status=%s duplicate=%t", id, req.Action, dec.Flow, res.Status, res.Duplicate)
		return resp, nil
	}
}

// CompleteVisitor finishes a scan that required visitor registration.
// The record is written with Temporary status and a VISITOR comment;
// for a check-out there is no open entry to close, so the row carries
// only the exit time.
func (e *Engine) CompleteVisitor(ctx context.Context, req types.VisitorRequest) (types.ScanResponse, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return types.ScanResponse{}, ErrMissingID
	}
	if strings.TrimSpace(req.Name) == "" {
		return types.ScanResponse{}, ErrMissingInput
	}
	if req.Action != ActionCheckIn && req.Action != ActionCheckOut {
		return types.ScanResponse{}, ErrInvalidAction
	}

	if err := e.acquire(ctx); err != nil {
		return types.ScanResponse{}, err
	}
	defer e.release()

	now := e.now()
	org := strings.TrimSpace(req.Organization)
	if org == "" {
		org = "Visitor"
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "Not specified"
	}
	comment := "VISITOR: " + req.Name + " | " + org + " | REASON: " + reason

	params := commitParams{
		ID:           id,
		Name:         req.Name,
		Organization: org,
		Action:       req.Action,
		Comment:      comment,
		Temporary:    true,
		At:           now,
	}
	if req.Action == ActionCheckIn {
		params.CheckIn = FormatClock(now)
	} else {
		params.CheckOut = FormatClock(now)
	}

	res, err := e.commit(ctx, params)
	if err != nil {
		return types.ScanResponse{}, err
	}

	flow := FlowVisitorCheckIn
	if req.Action == ActionCheckOut {
		flow = FlowVisitorCheckOut
	}
	e.logger.Printf("visitor id=%s action=%s status=%s duplicate=%t", id, req.Action, res.Status, res.Duplicate)
	return types.ScanResponse{
		OK:           true,
		Flow:         flow,
		Status:       res.Status,
		Duplicate:    res.Duplicate,
		Name:         req.Name,
		Organization: org,
		CheckIn:      params.CheckIn,
		CheckOut:     params.CheckOut,
		ServerTime:   now.Format(time.RFC3339),
	}, nil
}

// CompleteJustified finishes a check-out that had no open entry for a
// known person: the justification comment is recorded on a new
// exit-only row with Temporary status.
func (e *Engine) CompleteJustified(ctx context.Context, req types.JustifiedRequest) (types.ScanResponse, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return types.ScanResponse{}, ErrMissingID
	}
	if strings.TrimSpace(req.Comment) == "" {
		return types.ScanResponse{}, ErrMissingInput
	}

	if err := e.acquire(ctx); err != nil {
		return types.ScanResponse{}, err
	}
	defer e.release()

	person, known, err := e.directory.Lookup(ctx, id)
	if err != nil {
		return types.ScanResponse{}, err
	}
	if !known {
		return types.ScanResponse{}, ErrUnknownPerson
	}

	now := e.now()
	res, err := e.commit(ctx, commitParams{
		ID:           id,
		Name:         person.Name,
		Organization: person.Organization,
		CheckOut:     FormatClock(now),
		Action:       ActionCheckOut,
		Comment:      "JUSTIFIED: " + strings.TrimSpace(req.Comment),
		Temporary:    true,
		At:           now,
	})
	if err != nil {
		return types.ScanResponse{}, err
	}

	e.logger.Printf("justified check-out id=%s status=%s duplicate=%t", id, res.Status, res.Duplicate)
	return types.ScanResponse{
		OK:           true,
		Flow:         FlowJustifiedCheckOut,
		Status:       res.Status,
		Duplicate:    res.Duplicate,
		Name:         person.Name,
		Organization: person.Organization,
		CheckOut:     FormatClock(now),
		ServerTime:   now.Format(time.RFC3339),
	}, nil
}

type commitParams struct {
	ID           string
	Name         string
	Organization string
	CheckIn      string
	CheckOut     string
	Action       string
	Comment      string
	Temporary    bool // force Temporary status regardless of comment
	At           time.Time
}

type commitResult struct {
	Row       int
	Status    string
	Duplicate bool
}

// commit is the single write path: every branch that appends a row goes
// through here so status derivation, duration calculation and the
// duplicate-submission guard apply uniformly.
func (e *Engine) commit(ctx context.Context, p commitParams) (commitResult, error) {
	status := store.StatusPermitted
	switch {
	case p.Temporary || hasTemporaryMarker(p.Comment):
		status = store.StatusTemporary
	case p.Action == ActionCheckOut:
		status = store.StatusExitRecorded
	}

	ev := store.AccessEvent{
		Date:         FormatDate(p.At),
		ID:           p.ID,
		Name:         orDefault(p.Name, "N/A"),
		Status:       status,
		CheckIn:      p.CheckIn,
		CheckOut:     p.CheckOut,
		Organization: orDefault(p.Organization, "N/A"),
		Comment:      p.Comment,
	}
	if p.CheckIn != "" && p.CheckOut != "" {
		ev.Duration = Duration(p.CheckIn, p.CheckOut)
	}

	row, duplicate, err := e.ledger.Append(ctx, ev)
	if err != nil {
		return commitResult{}, err
	}
	if duplicate {
		e.logger.Printf("duplicate submission suppressed id=%s action=%s", p.ID, p.Action)
	}
	return commitResult{Row: row, Status: status, Duplicate: duplicate}, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
