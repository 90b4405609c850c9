package service

import "github.com/gatehouse-project/gatehouse/internal/gatehouse/store"

// Actions a scan can request.
const (
	ActionCheckIn  = "check-in"
	ActionCheckOut = "check-out"
)

// Additional-input kinds a decision may demand before any write.
const (
	InputNone                 = "none"
	InputVisitorRegistration  = "visitor-registration"
	InputJustificationComment = "justification"
)

// Flow labels identifying which branch of the decision table a scan
// landed on. Surfaced to callers so the kiosk can pick messaging.
const (
	FlowCheckIn           = "check-in-recorded"
	FlowDuplicateCheckIn  = "duplicate-check-in"
	FlowVisitorCheckIn    = "visitor-check-in-pending"
	FlowCheckOut          = "check-out-recorded"
	FlowJustifiedCheckOut = "justified-check-out-pending"
	FlowVisitorCheckOut   = "visitor-check-out-pending"
)

// Decision is the outcome descriptor for one scan: whether to write
// now, what status a committed row would carry, and what extra input
// must be collected first.
type Decision struct {
	Flow          string
	Status        string
	Commit        bool // write a record now, no further input needed
	Duplicate     bool // open entry already exists for a check-in
	RequiresInput bool
	InputKind     string
}

// Classify maps {is the person known, does an open entry exist, the
// requested action} onto one of six outcomes. It is a pure function:
// all I/O (directory lookup, presence resolution) happens before the
// call, and committing is the caller's job.
func Classify(personKnown, openEntry bool, action string) Decision {
	if action == ActionCheckIn {
		switch {
		case !personKnown:
			// Unregistered visitor: no write until registration input
			// arrives; the eventual record is Temporary.
			return Decision{
				Flow:          FlowVisitorCheckIn,
				Status:        store.StatusTemporary,
				RequiresInput: true,
				InputKind:     InputVisitorRegistration,
			}
		case openEntry:
			// Duplicate check-in: reject, surface the existing entry.
			return Decision{
				Flow:      FlowDuplicateCheckIn,
				Status:    store.StatusPermitted,
				Duplicate: true,
				InputKind: InputNone,
			}
		default:
			return Decision{
				Flow:      FlowCheckIn,
				Status:    store.StatusPermitted,
				Commit:    true,
				InputKind: InputNone,
			}
		}
	}

	// Check-out. An open entry is closed regardless of whether the person
	// is in the directory — the entry itself proves presence.
	switch {
	case openEntry:
		return Decision{
			Flow:      FlowCheckOut,
			Status:    store.StatusExitRecorded,
			Commit:    true,
			InputKind: InputNone,
		}
	case personKnown:
		// Known person, no open entry: a missed scan. Require a
		// justification comment before writing a Temporary record.
		return Decision{
			Flow:          FlowJustifiedCheckOut,
			Status:        store.StatusTemporary,
			RequiresInput: true,
			InputKind:     InputJustificationComment,
		}
	default:
		return Decision{
			Flow:          FlowVisitorCheckOut,
			Status:        store.StatusTemporary,
			RequiresInput: true,
			InputKind:     InputVisitorRegistration,
		}
	}
}
