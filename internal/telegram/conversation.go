package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
)

// Template fields used only by conversation texts.
const (
	fieldIndex    = "Index"
	fieldWhen     = "When"
	fieldItems    = "Items"
	fieldCount    = "Count"
	fieldURL      = "URL"
	fieldCategory = "Category"
)

type stage int

const (
	stageIdle stage = iota
	stageCategory
	stageName
	stageDate
	stageHandle
	stageDeleteIndex
	stageEditIndex
	stageEditName
	stageEditDate
)

// conversation is the per-chat dialog state.
type conversation struct {
	stage   stage
	draft   engine.Record
	choices []engine.Record // the numbered list shown by /delete or /edit
}

// categoryChoices maps the menu numbers of the /add prompt.
var categoryChoices = map[string]engine.Category{
	"1": engine.CategoryBirthday,
	"2": engine.CategoryHoliday,
	"3": engine.CategoryOther,
}

var categoryLabels = map[engine.Category]string{
	engine.CategoryBirthday: config.TKeyCategoryBirthday,
	engine.CategoryHoliday:  config.TKeyCategoryHoliday,
	engine.CategoryOther:    config.TKeyCategoryOther,
}

var errFutureDate = errors.New(config.ErrFutureDate)

func (b *Bot) conv(chat int64) *conversation {
	c, ok := b.convs[chat]
	if !ok {
		c = &conversation{}
		b.convs[chat] = c
	}
	return c
}

func (b *Bot) reset(chat int64) {
	delete(b.convs, chat)
}

func (b *Bot) handleText(ctx context.Context, chat int64, text string) {
	c := b.conv(chat)

	switch c.stage {
	case stageIdle:
		b.reset(chat)
		b.reply(chat, b.t(config.TKeyHelp, nil))

	case stageCategory:
		cat, ok := categoryChoices[text]
		if !ok {
			b.reply(chat, b.t(config.TKeyBadCategory, nil))
			return
		}
		c.draft = engine.Record{OwnerID: chat, Category: cat}
		c.stage = stageName
		if cat == engine.CategoryBirthday {
			b.reply(chat, b.t(config.TKeyAskName, nil))
		} else {
			b.reply(chat, b.t(config.TKeyAskEventName, nil))
		}

	case stageName:
		if !validName(text) {
			b.reply(chat, b.t(config.TKeyNameTooShort, nil))
			return
		}
		setName(&c.draft, text)
		c.stage = stageDate
		prompt := config.TKeyAskEventDate
		if c.draft.Category == engine.CategoryBirthday {
			prompt = config.TKeyAskBirthDate
		}
		b.reply(chat, b.t(prompt, map[string]any{engine.FieldName: text}))

	case stageDate:
		d, ok := b.readDate(chat, text, c.draft.Category)
		if !ok {
			return
		}
		c.draft.Date = d
		if c.draft.Category == engine.CategoryBirthday {
			c.stage = stageHandle
			b.reply(chat, b.t(config.TKeyAskHandle, nil))
			return
		}
		b.save(ctx, chat, c.draft)

	case stageHandle:
		if text != config.SkipInput {
			c.draft.ContactHandle = strings.TrimPrefix(text, config.HandlePrefix)
		}
		b.save(ctx, chat, c.draft)

	case stageDeleteIndex:
		rec, ok := b.pick(chat, c, text)
		if !ok {
			return
		}
		b.reset(chat)
		if err := b.opts.Records.Delete(ctx, rec.ID, chat); err != nil {
			b.logFailure(chat, err)
			b.reply(chat, b.t(config.TKeyDeleteFailed, nil))
			return
		}
		b.reply(chat, b.t(config.TKeyDeleted, map[string]any{engine.FieldName: rec.Heading()}))

	case stageEditIndex:
		rec, ok := b.pick(chat, c, text)
		if !ok {
			return
		}
		c.draft = rec
		c.choices = nil
		c.stage = stageEditName
		b.reply(chat, b.t(config.TKeyAskNewName, map[string]any{engine.FieldName: rec.Title()}))

	case stageEditName:
		if !validName(text) {
			b.reply(chat, b.t(config.TKeyNameTooShort, nil))
			return
		}
		setName(&c.draft, text)
		c.stage = stageEditDate
		b.reply(chat, b.t(config.TKeyAskNewDate, map[string]any{
			engine.FieldName: text,
			engine.FieldDate: c.draft.Date.Display(),
		}))

	case stageEditDate:
		d, ok := b.readDate(chat, text, c.draft.Category)
		if !ok {
			return
		}
		rec := c.draft
		rec.Date = d
		b.reset(chat)
		if err := b.opts.Records.Update(ctx, rec); err != nil {
			b.logFailure(chat, err)
			b.reply(chat, b.t(config.TKeyUpdateFailed, nil))
			return
		}
		b.reply(chat, b.t(config.TKeyUpdated, map[string]any{
			engine.FieldName: rec.Heading(),
			engine.FieldDate: rec.Date.Display(),
		}))
	}
}

func (b *Bot) save(ctx context.Context, chat int64, rec engine.Record) {
	b.reset(chat)
	if _, err := b.opts.Records.Add(ctx, rec); err != nil {
		b.logFailure(chat, err)
		b.reply(chat, b.t(config.TKeySaveFailed, nil))
		return
	}
	b.reply(chat, b.t(config.TKeySaved, map[string]any{
		fieldCategory:    b.t(categoryLabels[rec.Category], nil),
		engine.FieldName: rec.Heading(),
		engine.FieldDate: rec.Date.Display(),
	}))
}

// pick resolves a 1-based index against the list shown earlier. A bad answer
// ends the dialog.
func (b *Bot) pick(chat int64, c *conversation, text string) (engine.Record, bool) {
	n, err := strconv.Atoi(text)
	if err != nil {
		b.reset(chat)
		b.reply(chat, b.t(config.TKeyNotANumber, nil))
		return engine.Record{}, false
	}
	if n < 1 || n > len(c.choices) {
		b.reset(chat)
		b.reply(chat, b.t(config.TKeyBadIndex, nil))
		return engine.Record{}, false
	}
	return c.choices[n-1], true
}

// readDate parses a date answer, re-prompting on bad input.
func (b *Bot) readDate(chat int64, text string, cat engine.Category) (engine.CalendarDate, bool) {
	d, err := ParseInputDate(text, cat, b.opts.Clock.Now())
	switch {
	case errors.Is(err, errFutureDate):
		b.reply(chat, b.t(config.TKeyFutureDate, nil))
		return d, false
	case err != nil:
		b.reply(chat, b.t(config.TKeyBadDate, nil))
		return d, false
	}
	return d, true
}

// ParseInputDate reads a date typed by a user: "DD.MM.YYYY" or "DD.MM".
// Holidays and other events always get the sentinel year. A birthday
// without a year gets the sentinel year; one with a year must not lie after
// today.
func ParseInputDate(text string, cat engine.Category, today time.Time) (engine.CalendarDate, error) {
	text = strings.TrimSpace(text)

	if t, err := time.Parse(config.DateFormatInput, text); err == nil {
		if cat != engine.CategoryBirthday {
			return engine.NewCalendarDate(config.SentinelYear, t.Month(), t.Day())
		}
		y, m, d := today.Date()
		if t.After(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
			return engine.CalendarDate{}, errFutureDate
		}
		return engine.NewCalendarDate(t.Year(), t.Month(), t.Day())
	}

	if t, err := time.Parse(config.DateFormatInputNoYear, text); err == nil {
		return engine.NewCalendarDate(config.SentinelYear, t.Month(), t.Day())
	}

	return engine.CalendarDate{}, fmt.Errorf("%s: %q", config.ErrDateParse, text)
}

func validName(s string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) >= config.MinNameLength
}

// setName stores a typed name. Holidays and other events are shown by their
// label, so both fields follow the input.
func setName(rec *engine.Record, name string) {
	rec.SubjectName = name
	if rec.Category != engine.CategoryBirthday {
		rec.Label = name
	}
}
