package engine

import (
	"fmt"
	"time"
)

const hoursPerDay = 24

// occurrenceIn places the month/day of d in the given year.
// Feb 29 falls on March 1 in non-leap years; time.Date performs exactly that
// normalization, and the age rule below agrees with it.
func occurrenceIn(year int, d CalendarDate, loc *time.Location) time.Time {
	return time.Date(year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// NextOccurrence returns the next date, on or after today's calendar date,
// on which the month/day of d recurs. The result is midnight in today's location.
func NextOccurrence(today time.Time, d CalendarDate) (time.Time, error) {
	if !d.Valid() {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, d)
	}

	loc := today.Location()
	todayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	candidate := occurrenceIn(today.Year(), d, loc)
	if candidate.Before(todayStart) {
		candidate = occurrenceIn(today.Year()+1, d, loc)
	}
	return candidate, nil
}

// DaysUntilNextOccurrence counts whole calendar days from today to the next
// occurrence of d. The result is in [0, 365] and ignores the stored year.
func DaysUntilNextOccurrence(today time.Time, d CalendarDate) (int, error) {
	next, err := NextOccurrence(today, d)
	if err != nil {
		return 0, err
	}
	return daysBetween(today, next), nil
}

// daysBetween counts civil days between the dates of a and b.
// Both are projected to UTC midnight so offset changes cannot skew the count.
func daysBetween(a, b time.Time) int {
	from := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / hoursPerDay)
}

// CurrentAge returns the completed years since d as of today, or -1 when the
// year is unknown (sentinel) or lies in the future.
func CurrentAge(today time.Time, d CalendarDate) int {
	if !d.YearKnown() || d.Year > today.Year() {
		return -1
	}

	age := today.Year() - d.Year
	if DateOf(today).monthDayBefore(d) {
		age--
	}
	if age < 0 {
		return -1
	}
	return age
}
