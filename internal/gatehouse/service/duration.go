package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Duration returns the elapsed wall-clock time between two time-of-day
// strings as "H:MM:SS". Inputs may be "HH:MM" or "HH:MM:SS". When the
// check-out reads earlier than the check-in the stay is assumed to have
// crossed midnight and a day is added; this is a heuristic and cannot
// detect multi-day stays. Unparseable input yields "0:00:00" rather
// than an error, so a zero result does not imply the inputs parsed.
func Duration(checkIn, checkOut string) string {
	in, ok := clockSeconds(checkIn)
	if !ok {
		return "0:00:00"
	}
	out, ok := clockSeconds(checkOut)
	if !ok {
		return "0:00:00"
	}

	if out < in {
		out += secondsPerDay
	}
	return formatDuration(out - in)
}

// clockSeconds converts a "HH:MM[:SS]" string to seconds since midnight.
func clockSeconds(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !strings.Contains(s, ":") {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, false
		}
		fields[i] = n
	}
	return fields[0]*3600 + fields[1]*60 + fields[2], true
}

func formatDuration(totalSeconds int) string {
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// FormatClock renders a timestamp as the ledger's "HH:MM:SS" time cell.
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}

// FormatDate renders a timestamp as the ledger's "YYYY-MM-DD" date cell.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
