package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
	"github.com/tartampluch/go-birthday-bot/internal/i18n"
)

func newRenderer(t *testing.T, lang string) *engine.MessageRenderer {
	t.Helper()
	catalog, err := i18n.New(lang)
	require.NoError(t, err)
	return engine.NewMessageRenderer(catalog)
}

// failingTranslator simulates a catalog that cannot render anything.
type failingTranslator struct{}

func (failingTranslator) Translate(string, map[string]any) (string, error) {
	return "", errors.New("boom")
}

func TestIsDue(t *testing.T) {
	for days := -1; days <= 366; days++ {
		want := days == 0 || days == 1 || days == 3 || days == 7
		assert.Equalf(t, want, engine.IsDue(days), "days=%d", days)
	}
}

func TestTemplateFor(t *testing.T) {
	id, err := engine.TemplateFor(engine.CategoryBirthday, 3, true)
	require.NoError(t, err)
	assert.Equal(t, config.TKeyBirthdayIn3DaysAge, id)

	// Age is ignored outside birthdays.
	id, err = engine.TemplateFor(engine.CategoryHoliday, 0, true)
	require.NoError(t, err)
	assert.Equal(t, config.TKeyHolidayToday, id)

	_, err = engine.TemplateFor(engine.CategoryOther, 2, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrNoTemplate)

	// Every category has a template at every due offset.
	for _, c := range []engine.Category{engine.CategoryBirthday, engine.CategoryHoliday, engine.CategoryOther} {
		for _, offset := range engine.DueOffsets {
			_, err := engine.TemplateFor(c, offset, false)
			assert.NoErrorf(t, err, "%s at %d", c, offset)
		}
	}
}

func TestMessageRenderer_Russian(t *testing.T) {
	r := newRenderer(t, "ru")
	today := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	ivan := engine.Record{
		SubjectName:   "Иван Петров",
		ContactHandle: "ivan",
		Category:      engine.CategoryBirthday,
		Date:          engine.CalendarDate{Year: 1990, Month: time.March, Day: 17},
	}
	noYear := engine.Record{
		SubjectName: "Мария",
		Category:    engine.CategoryBirthday,
		Date:        engine.CalendarDate{Year: config.SentinelYear, Month: time.March, Day: 11},
	}
	holiday := engine.Record{
		SubjectName: "8 марта",
		Label:       "Международный женский день",
		Category:    engine.CategoryHoliday,
		Date:        engine.CalendarDate{Year: config.SentinelYear, Month: time.March, Day: 8},
	}
	other := engine.Record{
		SubjectName: "Оплата квартиры",
		Category:    engine.CategoryOther,
		Date:        engine.CalendarDate{Year: config.SentinelYear, Month: time.March, Day: 13},
	}

	tests := []struct {
		name string
		rec  engine.Record
		days int
		want string
	}{
		{"Birthday in 7 days with age", ivan, 7, "🎂 Не забудь поздравить Иван Петров (@ivan) через 7 дней (17.03.1990) (исполнится 34 лет)!"},
		{"Birthday in 3 days with age", ivan, 3, "🎂 Не забудь поздравить Иван Петров (@ivan) через 3 дня (17.03.1990) (исполнится 34 лет)!"},
		{"Birthday tomorrow without year", noYear, 1, "🎂 Не забудь поздравить Мария завтра (11.03)!"},
		{"Birthday today without year", noYear, 0, "🎉 СЕГОДНЯ день рождения у Мария (11.03)!\nНе забудь поздравить! 🎂🎁"},
		{"Holiday today", holiday, 0, "🎊 СЕГОДНЯ Международный женский день!\nНе забудь поздравить! 🎉"},
		{"Holiday in 7 days", holiday, 7, "🎊 Через 7 дней Международный женский день (08.03)!"},
		{"Other in 3 days", other, 3, "📅 Через 3 дня не забудь про Оплата квартиры (13.03)!"},
		{"Other in 7 days", other, 7, "📅 Через 7 дней: Оплата квартиры (13.03)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render(tt.rec, tt.days, today)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMessageRenderer_English(t *testing.T) {
	r := newRenderer(t, "en")
	today := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	rec := engine.Record{
		SubjectName: "John",
		Category:    engine.CategoryBirthday,
		Date:        engine.CalendarDate{Year: 1990, Month: time.March, Day: 11},
	}

	got, err := r.Render(rec, 1, today)
	require.NoError(t, err)
	assert.Equal(t, "🎂 Don't forget to congratulate John tomorrow (11.03.1990) (turns 34)!", got)
}

func TestMessageRenderer_Errors(t *testing.T) {
	today := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	rec := engine.Record{SubjectName: "X", Category: engine.CategoryOther, Date: engine.CalendarDate{Year: config.SentinelYear, Month: time.March, Day: 10}}

	_, err := engine.NewMessageRenderer(nil).Render(rec, 0, today)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrLocNotInit)

	_, err = engine.NewMessageRenderer(failingTranslator{}).Render(rec, 0, today)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrRender)

	_, err = newRenderer(t, "ru").Render(rec, 5, today)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrNoTemplate)
}
