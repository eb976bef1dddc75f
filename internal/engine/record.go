package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// ErrInvalidDate reports a month/day pair that cannot form a calendar date.
var ErrInvalidDate = errors.New(config.ErrInvalidDate)

// Category selects the reminder tone and whether an age is computed.
type Category string

const (
	CategoryBirthday Category = config.CategoryBirthday
	CategoryHoliday  Category = config.CategoryHoliday
	CategoryOther    Category = config.CategoryOther
)

// ParseCategory maps a stored category string to a Category.
// Rows written before categories existed have an empty value and are birthdays.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case "", CategoryBirthday:
		return CategoryBirthday
	case CategoryHoliday:
		return CategoryHoliday
	default:
		return CategoryOther
	}
}

// CalendarDate is a date without time or zone. Year == config.SentinelYear
// means the year is not meaningful and only month/day recur.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewCalendarDate builds a validated CalendarDate.
func NewCalendarDate(year int, month time.Month, day int) (CalendarDate, error) {
	d := CalendarDate{Year: year, Month: month, Day: day}
	if !d.Valid() {
		return CalendarDate{}, fmt.Errorf("%w: %s", ErrInvalidDate, d)
	}
	return d, nil
}

// DateOf extracts the calendar date of t in t's own location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// ParseCalendarDate parses the stored YYYY-MM-DD form.
func ParseCalendarDate(s string) (CalendarDate, error) {
	var y, m, d int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), config.FormatStoredScan, &y, &m, &d); err != nil {
		return CalendarDate{}, fmt.Errorf("%s %q: %w", config.ErrDateParse, s, err)
	}
	return NewCalendarDate(y, time.Month(m), d)
}

// Valid reports whether month/day exist in a leap year. The stored year is
// deliberately ignored so that a sentinel-year Feb 29 stays valid.
func (d CalendarDate) Valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	probe := time.Date(config.DefaultLeapYear, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return probe.Month() == d.Month && probe.Day() == d.Day
}

// YearKnown reports whether the year carries real information.
func (d CalendarDate) YearKnown() bool {
	return d.Year > config.SentinelYear
}

// IsLeapDay reports whether the date is Feb 29.
func (d CalendarDate) IsLeapDay() bool {
	return d.Month == time.February && d.Day == 29
}

// String renders the stored YYYY-MM-DD form.
func (d CalendarDate) String() string {
	return fmt.Sprintf(config.FormatStoredDate, d.Year, int(d.Month), d.Day)
}

// Display renders the date for humans, omitting a sentinel year.
func (d CalendarDate) Display() string {
	// Format through a leap reference year so Feb 29 survives.
	year := d.Year
	layout := config.DateFormatDisplay
	if !d.YearKnown() {
		year = config.DefaultLeapYear
		layout = config.DateFormatDisplayNoYear
	}
	t := time.Date(year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	if t.Day() != d.Day {
		// Known non-leap year with Feb 29 input; keep the digits verbatim.
		return fmt.Sprintf("%02d.%02d.%04d", d.Day, int(d.Month), d.Year)
	}
	return t.Format(layout)
}

// monthDayBefore compares month/day only.
func (d CalendarDate) monthDayBefore(o CalendarDate) bool {
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// Record is one stored annual event owned by a subscriber.
type Record struct {
	ID            int64
	OwnerID       int64 // chat that receives the reminders
	SubjectName   string
	Date          CalendarDate
	Category      Category
	Label         string // event name for holiday/other
	ContactHandle string // Telegram username without "@", display only
	CreatedAt     time.Time
}

// Title is the name shown for holiday and other events.
func (r Record) Title() string {
	if strings.TrimSpace(r.Label) != "" {
		return r.Label
	}
	return r.SubjectName
}

// DisplayName is the birthday subject decorated with the contact handle.
func (r Record) DisplayName() string {
	handle := strings.TrimPrefix(strings.TrimSpace(r.ContactHandle), config.HandlePrefix)
	if handle == "" {
		return r.SubjectName
	}
	return fmt.Sprintf("%s (%s%s)", r.SubjectName, config.HandlePrefix, handle)
}

// Heading is the name used in listings and calendar summaries.
func (r Record) Heading() string {
	if r.Category == CategoryBirthday {
		return r.DisplayName()
	}
	return r.Title()
}
