package engine

import (
	"log/slog"
	"sort"
	"time"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// UpcomingEntry is a record projected onto its next occurrence, for listings.
type UpcomingEntry struct {
	Record Record

	// NextOccurrence is the calendar date of the next recurrence.
	// This is the primary sorting key.
	NextOccurrence time.Time

	// DaysUntil is the distance from today in calendar days.
	DaysUntil int

	// AgeNext is the age the subject turns at NextOccurrence, or -1 when unknown.
	// Only birthdays carry an age.
	AgeNext int
}

// Upcoming projects records onto their next occurrence and sorts them by
// distance, then by heading. Records with an invalid date are dropped.
func Upcoming(today time.Time, records []Record) []UpcomingEntry {
	entries := make([]UpcomingEntry, 0, len(records))

	for _, rec := range records {
		next, err := NextOccurrence(today, rec.Date)
		if err != nil {
			slog.Warn(config.MsgSkippedRecord,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyRecord, rec.ID,
				config.LogKeyError, err)
			continue
		}

		ageNext := -1
		if rec.Category == CategoryBirthday && rec.Date.YearKnown() {
			ageNext = next.Year() - rec.Date.Year
		}

		entries = append(entries, UpcomingEntry{
			Record:         rec,
			NextOccurrence: next,
			DaysUntil:      daysBetween(today, next),
			AgeNext:        ageNext,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DaysUntil != entries[j].DaysUntil {
			return entries[i].DaysUntil < entries[j].DaysUntil
		}
		return entries[i].Record.Heading() < entries[j].Record.Heading()
	})
	return entries
}
