package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// The Sweeper uses it to determine "today"; any clock from
// github.com/jmhodges/clock satisfies it.
type Clock interface {
	Now() time.Time
}

// ZonedClock reports the current time in a fixed location.
// A nil Location means the process local zone.
type ZonedClock struct {
	Location *time.Location
}

// Now returns the current time in the configured location.
func (c ZonedClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
