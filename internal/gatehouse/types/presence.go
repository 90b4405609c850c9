package types

// InsidePerson is one entry of the presence snapshot: an identifier
// with an open entry, annotated with elapsed time inside.
type InsidePerson struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	CheckIn      string `json:"check_in"`
	Elapsed      string `json:"elapsed"`
}

// InsideResponse answers "who is inside right now".
type InsideResponse struct {
	OK         bool           `json:"ok"`
	Total      int            `json:"total"`
	People     []InsidePerson `json:"people"`
	ServerTime string         `json:"server_time"`
}

// RecentRecord is a compact view of a recent ledger row for the stats
// panel.
type RecentRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Action   string `json:"action"`
	Status   string `json:"status"`
	Time     string `json:"time"`
	Duration string `json:"duration,omitempty"`
}

// Stats summarizes the recent window of the ledger.
type Stats struct {
	Entries           int            `json:"entries"`
	Exits             int            `json:"exits"`
	ValidExits        int            `json:"valid_exits"`
	Inside            int            `json:"inside"`
	ExitsWithoutEntry int            `json:"exits_without_entry"`
	Recent            []RecentRecord `json:"recent"`
}

// StatsResponse wraps Stats for the HTTP API.
type StatsResponse struct {
	OK         bool   `json:"ok"`
	Stats      Stats  `json:"stats"`
	ServerTime string `json:"server_time"`
}
