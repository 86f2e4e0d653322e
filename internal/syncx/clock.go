package syncx

import (
	"sync"
	"time"
)

// TimeLayout is the canonical timestamp form used everywhere in the sync
// protocol: 19-character ISO-8601, UTC, trailing Z, no fractional seconds.
// Because the form is fixed-width, lexicographic comparison of two canonical
// strings equals chronological comparison, which the store relies on.
const TimeLayout = "2006-01-02T15:04:05Z"

// DateLayout is the calendar-day form used for entry dates.
const DateLayout = "2006-01-02"

// Canonical formats t in the canonical timestamp form.
func Canonical(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimeLayout)
}

// ParseCanonical parses a canonical timestamp string.
func ParseCanonical(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD calendar day.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Clock issues canonical timestamps that never decrease within the process.
// If system time moves backward, the last issued instant is returned again.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewClock returns a Clock backed by the system time.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockAt returns a Clock backed by the given time source. Tests use this
// to pin or rewind time.
func NewClockAt(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current canonical timestamp.
func (c *Clock) Now() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Second)
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t.Format(TimeLayout)
}

// Today returns the clock's current instant in local time. Date math
// like the entry read window works on local days, not UTC.
func (c *Clock) Today() time.Time {
	return c.now()
}
