package engine

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/teambition/rrule-go"
)

// leapDayOfYear is Feb 29 in leap years and March 1 otherwise.
const leapDayOfYear = 60

var summaryKeys = map[Category]string{
	CategoryBirthday: config.TKeyEvtSummaryBirthday,
	CategoryHoliday:  config.TKeyEvtSummaryHoliday,
	CategoryOther:    config.TKeyEvtSummaryOther,
}

// FeedKey derives the unguessable path key of an owner's feed.
func FeedKey(secret string, owner int64) string {
	name := fmt.Sprintf(config.FormatFeedName, secret, owner)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// eventUID is stable across rebuilds as long as the record keeps its id and heading.
func eventUID(rec Record) string {
	name := fmt.Sprintf(config.FormatUIDName, rec.OwnerID, rec.ID, rec.Heading())
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// yearlyRule returns the RRULE value for rec. Leap-day records recur on day
// 60 of the year, which matches the March 1 policy of NextOccurrence.
func yearlyRule(d CalendarDate) string {
	opt := rrule.ROption{Freq: rrule.YEARLY}
	if d.IsLeapDay() {
		opt.Byyearday = []int{leapDayOfYear}
	}
	return opt.RRuleString()
}

// summary renders the event title, falling back to the plain heading.
func summary(tr Translator, rec Record, ageNext int) string {
	if tr == nil {
		return rec.Heading()
	}
	data := map[string]any{FieldName: rec.Heading()}
	if ageNext > 0 {
		data[FieldAge] = ageNext
	}
	text, err := tr.Translate(summaryKeys[rec.Category], data)
	if err != nil {
		return rec.Heading()
	}
	return text
}

// BuildCalendar renders the records as one iCalendar feed: an all-day yearly
// event per record starting at its next occurrence, with DISPLAY alarms at
// every non-zero due offset.
func BuildCalendar(now time.Time, records []Record, tr Translator) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	// Dates follow the configured offset; only the stamp is UTC.
	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for _, entry := range Upcoming(now, records) {
		rec := entry.Record
		title := summary(tr, rec, entry.AgeNext)

		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, eventUID(rec))
		event.Props.SetText(config.PropSummary, title)
		event.Props.SetText(config.PropCategories, string(rec.Category))
		event.Props.Set(dtStampProp)

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(entry.NextOccurrence)
		event.Props.Set(dtStartProp)

		// Set manually to avoid a VALUE=TEXT parameter.
		ruleProp := ical.NewProp(config.PropRRule)
		ruleProp.Value = yearlyRule(rec.Date)
		event.Props.Set(ruleProp)

		for _, offset := range DueOffsets {
			if offset > 0 {
				addAlarm(event, fmt.Sprintf(config.FormatAlarmTrigger, offset), title)
			}
		}

		cal.Children = append(cal.Children, event.Component)
	}

	if len(cal.Children) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// addAlarm appends a DISPLAY alarm to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

// BuildFeeds renders one calendar per owner, keyed by FeedKey.
func BuildFeeds(now time.Time, records []Record, secret string, tr Translator) (map[string][]byte, error) {
	byOwner := make(map[int64][]Record)
	for _, rec := range records {
		byOwner[rec.OwnerID] = append(byOwner[rec.OwnerID], rec)
	}

	feeds := make(map[string][]byte, len(byOwner))
	for owner, recs := range byOwner {
		data, err := BuildCalendar(now, recs, tr)
		if err != nil {
			return nil, err
		}
		feeds[FeedKey(secret, owner)] = data
	}

	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyFeeds, len(feeds),
		config.LogKeyCount, len(records))
	return feeds, nil
}
