package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
)

func TestParseCategory(t *testing.T) {
	tests := map[string]engine.Category{
		"":          engine.CategoryBirthday,
		"birthday":  engine.CategoryBirthday,
		" Holiday ": engine.CategoryHoliday,
		"other":     engine.CategoryOther,
		"meeting":   engine.CategoryOther,
	}
	for in, want := range tests {
		assert.Equalf(t, want, engine.ParseCategory(in), "input %q", in)
	}
}

func TestParseCalendarDate(t *testing.T) {
	t.Run("Stored form", func(t *testing.T) {
		d, err := engine.ParseCalendarDate("1990-03-17")
		require.NoError(t, err)
		assert.Equal(t, engine.CalendarDate{Year: 1990, Month: time.March, Day: 17}, d)
		assert.Equal(t, "1990-03-17", d.String())
		assert.True(t, d.YearKnown())
	})

	t.Run("Sentinel leap day", func(t *testing.T) {
		d, err := engine.ParseCalendarDate("1900-02-29")
		require.NoError(t, err)
		assert.False(t, d.YearKnown())
		assert.True(t, d.IsLeapDay())
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := engine.ParseCalendarDate("17.03.1990x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), config.ErrDateParse)
	})

	t.Run("Impossible day", func(t *testing.T) {
		_, err := engine.ParseCalendarDate("1990-04-31")
		assert.ErrorIs(t, err, engine.ErrInvalidDate)
	})
}

func TestCalendarDate_Display(t *testing.T) {
	assert.Equal(t, "17.03.1990", engine.CalendarDate{Year: 1990, Month: time.March, Day: 17}.Display())
	assert.Equal(t, "01.01", engine.CalendarDate{Year: config.SentinelYear, Month: time.January, Day: 1}.Display())
	assert.Equal(t, "29.02", engine.CalendarDate{Year: config.SentinelYear, Month: time.February, Day: 29}.Display())
	assert.Equal(t, "29.02.2000", engine.CalendarDate{Year: 2000, Month: time.February, Day: 29}.Display())
}

func TestRecord_Names(t *testing.T) {
	birthday := engine.Record{SubjectName: "Иван Петров", ContactHandle: "@ivan", Category: engine.CategoryBirthday}
	assert.Equal(t, "Иван Петров (@ivan)", birthday.DisplayName())
	assert.Equal(t, "Иван Петров (@ivan)", birthday.Heading())

	noHandle := engine.Record{SubjectName: "Иван Петров", Category: engine.CategoryBirthday}
	assert.Equal(t, "Иван Петров", noHandle.DisplayName())

	holiday := engine.Record{SubjectName: "ny", Label: "Новый Год", Category: engine.CategoryHoliday}
	assert.Equal(t, "Новый Год", holiday.Title())
	assert.Equal(t, "Новый Год", holiday.Heading())

	unlabeled := engine.Record{SubjectName: "Годовщина", Category: engine.CategoryOther}
	assert.Equal(t, "Годовщина", unlabeled.Title())
}
