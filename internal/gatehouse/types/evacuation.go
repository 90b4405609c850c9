package types

// Evacuation modes. REAL closes open entries in the main ledger;
// SIMULACRO (drill) writes to an isolated drill table and never touches
// the main ledger.
const (
	EvacuationReal  = "REAL"
	EvacuationDrill = "SIMULACRO"
)

// EvacuationRequest is a bulk close-out over a roster of identifiers.
type EvacuationRequest struct {
	IDs      []string `json:"ids"`
	Mode     string   `json:"mode"`
	Operator string   `json:"operator,omitempty"`
}

// EvacuationResponse reports per-identifier outcomes. Partial success
// is expected: Errors lists identifiers that could not be processed,
// and Processed counts the ones that were.
type EvacuationResponse struct {
	OK         bool     `json:"ok"`
	Mode       string   `json:"mode"`
	Processed  int      `json:"processed"`
	Errors     []string `json:"errors,omitempty"`
	DrillTable string   `json:"drill_table,omitempty"`
	ServerTime string   `json:"server_time"`
}

// ShiftCloseRequest closes the active shift: exports the ledger and
// clears it.
type ShiftCloseRequest struct {
	Operator string `json:"operator,omitempty"`
}

// ShiftCloseResponse reports where the exported rows landed.
type ShiftCloseResponse struct {
	OK         bool   `json:"ok"`
	Rows       int    `json:"rows"`
	Location   string `json:"location,omitempty"`
	ServerTime string `json:"server_time"`
}
