package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
)

func TestUpcoming_SortedByDistance(t *testing.T) {
	// Current date: June 1, 2025
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	records := []engine.Record{
		birthday(1, 7, "Past Birthday", 1990, time.January, 1),
		birthday(2, 7, "Future Birthday", 1990, time.December, 31),
		birthday(3, 7, "Today Birthday", 1990, time.June, 1),
		{ID: 4, OwnerID: 7, SubjectName: "Broken", Category: engine.CategoryOther, Date: engine.CalendarDate{Year: 1990, Month: time.June, Day: 31}},
		{ID: 5, OwnerID: 7, SubjectName: "День знаний", Category: engine.CategoryHoliday, Date: engine.CalendarDate{Year: config.SentinelYear, Month: time.September, Day: 1}},
	}

	entries := engine.Upcoming(now, records)
	require.Len(t, entries, 4, "Invalid dates are dropped")

	assert.Equal(t, "Today Birthday", entries[0].Record.SubjectName)
	assert.Equal(t, 0, entries[0].DaysUntil)
	assert.Equal(t, 35, entries[0].AgeNext)

	assert.Equal(t, "День знаний", entries[1].Record.SubjectName)
	assert.Equal(t, -1, entries[1].AgeNext, "Holidays carry no age")

	assert.Equal(t, "Future Birthday", entries[2].Record.SubjectName)
	assert.Equal(t, 2025, entries[2].NextOccurrence.Year())

	assert.Equal(t, "Past Birthday", entries[3].Record.SubjectName)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), entries[3].NextOccurrence)
	assert.Equal(t, 36, entries[3].AgeNext)
}
