package types

// ScanRequest is one badge/kiosk scan: an identifier plus the requested
// action ("check-in" or "check-out"). Comment is optional free text the
// kiosk may attach to the resulting record.
type ScanRequest struct {
	ID      string `json:"id"`
	Action  string `json:"action"`
	Comment string `json:"comment,omitempty"`
}

// ScanResponse reports what the reconciliation engine decided. When
// RequiresInput is set, nothing was written: the caller must collect
// the named input kind and complete the flow via the visitor or
// justified endpoints.
type ScanResponse struct {
	OK            bool   `json:"ok"`
	Flow          string `json:"flow"`
	Status        string `json:"status,omitempty"`
	Duplicate     bool   `json:"duplicate,omitempty"`
	RequiresInput bool   `json:"requires_input,omitempty"`
	InputKind     string `json:"input_kind,omitempty"`
	Name          string `json:"name,omitempty"`
	Organization  string `json:"organization,omitempty"`
	CheckIn       string `json:"check_in,omitempty"`
	CheckOut      string `json:"check_out,omitempty"`
	Duration      string `json:"duration,omitempty"`
	ServerTime    string `json:"server_time"`
}

// VisitorRequest completes a scan that required visitor registration.
type VisitorRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Action       string `json:"action"`
}

// JustifiedRequest completes a check-out that required a justification
// comment (known person, no open entry).
type JustifiedRequest struct {
	ID      string `json:"id"`
	Comment string `json:"comment"`
}
