package booking

import "time"

// The slot catalog is process-wide static configuration: the same ordered
// set of hourly tour slots applies to every building on every day. Changing
// it is a deployment-time decision, never a per-request one.
var slotCatalog = []string{
	"09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
	"01:00 PM", "02:00 PM", "03:00 PM", "04:00 PM",
	"05:00 PM",
}

// Catalog returns the bookable time slots in chronological order. Callers
// may rely on the ordering; the returned slice is a copy.
func Catalog() []string {
	out := make([]string, len(slotCatalog))
	copy(out, slotCatalog)
	return out
}

// InCatalog reports whether label is a known slot.
func InCatalog(label string) bool {
	for _, s := range slotCatalog {
		if s == label {
			return true
		}
	}
	return false
}

// DayBounds normalizes t to its UTC calendar day and returns the half-open
// range [start, end). All day-boundary arithmetic in this package is UTC;
// stored booking dates are UTC midnights.
func DayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
