package syncx

import "time"

// WindowDays is the rolling retention window applied to entry reads.
const WindowDays = 7

// EntryLowerBound returns the inclusive lower date bound for entry
// visibility: the calendar day WindowDays before now, in now's location.
// Only reads are windowed; writes to older dates are accepted and simply
// stay invisible until the window catches up.
func EntryLowerBound(now time.Time) string {
	return now.AddDate(0, 0, -WindowDays).Format(DateLayout)
}
