package engine

import (
	"fmt"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// Due offsets, in days before the occurrence.
const (
	OffsetToday    = 0
	OffsetTomorrow = 1
	OffsetIn3Days  = 3
	OffsetIn7Days  = 7
)

// DueOffsets is the fixed set of days-until values that trigger a reminder.
var DueOffsets = []int{OffsetToday, OffsetTomorrow, OffsetIn3Days, OffsetIn7Days}

// IsDue reports whether a reminder fires at the given distance.
func IsDue(daysUntil int) bool {
	for _, o := range DueOffsets {
		if o == daysUntil {
			return true
		}
	}
	return false
}

// templateKey identifies one reminder phrasing.
type templateKey struct {
	category Category
	offset   int
	withAge  bool
}

// reminderTemplates maps a category, offset and age availability to a
// message id. Only birthdays have "with age" entries.
var reminderTemplates = map[templateKey]string{
	{CategoryBirthday, OffsetToday, false}:    config.TKeyBirthdayToday,
	{CategoryBirthday, OffsetToday, true}:     config.TKeyBirthdayTodayAge,
	{CategoryBirthday, OffsetTomorrow, false}: config.TKeyBirthdayTomorrow,
	{CategoryBirthday, OffsetTomorrow, true}:  config.TKeyBirthdayTomorrowAge,
	{CategoryBirthday, OffsetIn3Days, false}:  config.TKeyBirthdayIn3Days,
	{CategoryBirthday, OffsetIn3Days, true}:   config.TKeyBirthdayIn3DaysAge,
	{CategoryBirthday, OffsetIn7Days, false}:  config.TKeyBirthdayIn7Days,
	{CategoryBirthday, OffsetIn7Days, true}:   config.TKeyBirthdayIn7DaysAge,

	{CategoryHoliday, OffsetToday, false}:    config.TKeyHolidayToday,
	{CategoryHoliday, OffsetTomorrow, false}: config.TKeyHolidayTomorrow,
	{CategoryHoliday, OffsetIn3Days, false}:  config.TKeyHolidayIn3Days,
	{CategoryHoliday, OffsetIn7Days, false}:  config.TKeyHolidayIn7Days,

	{CategoryOther, OffsetToday, false}:    config.TKeyOtherToday,
	{CategoryOther, OffsetTomorrow, false}: config.TKeyOtherTomorrow,
	{CategoryOther, OffsetIn3Days, false}:  config.TKeyOtherIn3Days,
	{CategoryOther, OffsetIn7Days, false}:  config.TKeyOtherIn7Days,
}

// TemplateFor returns the message id for a reminder.
func TemplateFor(c Category, daysUntil int, withAge bool) (string, error) {
	if c != CategoryBirthday {
		withAge = false
	}
	id, ok := reminderTemplates[templateKey{c, daysUntil, withAge}]
	if !ok {
		return "", fmt.Errorf("%s: %s/%d", config.ErrNoTemplate, c, daysUntil)
	}
	return id, nil
}

// TemplateIDs lists every reminder message id, for catalog integrity checks.
func TemplateIDs() []string {
	ids := make([]string, 0, len(reminderTemplates))
	for _, id := range reminderTemplates {
		ids = append(ids, id)
	}
	return ids
}
