package ledger

import "time"

// Day truncates a timestamp to its calendar date in UTC. The ledger compares
// settlement dates at day granularity only.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextBusinessDay returns the next business day after d, skipping Saturday
// and Sunday forward to Monday. A Friday trade settles Monday: the weekend
// is skipped over, not added as extra delay. No holiday calendar is applied.
func NextBusinessDay(d time.Time) time.Time {
	d = Day(d)

	var offset int

	switch d.Weekday() {
	case time.Friday:
		offset = 3
	case time.Saturday:
		offset = 2
	default:
		offset = 1
	}

	return d.AddDate(0, 0, offset)
}
