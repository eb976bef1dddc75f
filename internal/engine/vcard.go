package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// ImportVCards decodes a vCard stream and returns one birthday Record per card
// with a usable BDAY. Cards without a birthday or with an unreadable one are
// skipped; the stream keeps being read so one bad card does not lose the rest.
func ImportVCards(ctx context.Context, r io.Reader, owner int64) ([]Record, error) {
	decoder := vcard.NewDecoder(r)
	stats := struct{ processed, withBday int }{0, 0}
	var records []Record
	consecutiveErrs := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A broken card yields one error per line until the next BEGIN.
			// A failing reader yields the same error forever.
			consecutiveErrs++
			if consecutiveErrs > config.MaxVCardErrors {
				return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
			}
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompImport,
				config.LogKeyError, err)
			continue
		}
		consecutiveErrs = 0

		stats.processed++
		bday := card.Get(config.VCardBDAY)
		if bday == nil || bday.Value == "" {
			continue
		}

		date, err := parseDate(bday.Value)
		if err != nil {
			slog.Debug(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompImport,
				config.LogKeyValue, bday.Value)
			continue
		}
		stats.withBday++

		records = append(records, Record{
			OwnerID:     owner,
			SubjectName: cardName(card),
			Date:        date,
			Category:    CategoryBirthday,
		})
	}

	slog.Info(config.MsgImportDone,
		config.LogKeyComponent, config.CompImport,
		config.LogKeyOwner, owner,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, stats.processed),
			slog.Int(config.LogKeyCount, stats.withBday),
		),
	)
	return records, nil
}

// cardName picks FN (Formatted) > N (Structured) > fallback.
func cardName(card vcard.Card) string {
	if fn := card.Get(config.VCardFN); fn != nil && strings.TrimSpace(fn.Value) != "" {
		return strings.TrimSpace(fn.Value)
	}
	if n := card.Name(); n != nil {
		full := strings.TrimSpace(strings.Join([]string{n.GivenName, n.FamilyName}, " "))
		if full != "" {
			return full
		}
	}
	return config.FallbackName
}

// parseDate handles the vCard BDAY forms. Truncated dates (--MM-DD) get the
// sentinel year.
func parseDate(value string) (CalendarDate, error) {
	value = strings.TrimSpace(value)

	formatsWithYear := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formatsWithYear {
		if t, err := time.Parse(f, value); err == nil {
			return NewCalendarDate(t.Year(), t.Month(), t.Day())
		}
	}

	formatsWithoutYear := []string{config.DateFormatNoYearD, config.DateFormatNoYearB}
	for _, f := range formatsWithoutYear {
		if t, err := time.Parse(f, value); err == nil {
			return NewCalendarDate(config.SentinelYear, t.Month(), t.Day())
		}
	}

	return CalendarDate{}, fmt.Errorf("%s: %q", config.ErrDateParse, value)
}
