// Package store persists event records for the bot and the sweep.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
)

// ErrNotFound is returned when no row matches the id and owner.
var ErrNotFound = errors.New(config.ErrNotFound)

// Store is the keyed record store. Every per-record operation is scoped by
// owner so a subscriber can never touch another subscriber's rows.
type Store interface {
	Add(ctx context.Context, rec engine.Record) (int64, error)
	List(ctx context.Context, owner int64) ([]engine.Record, error)
	Get(ctx context.Context, id, owner int64) (engine.Record, error)
	Update(ctx context.Context, rec engine.Record) error
	Delete(ctx context.Context, id, owner int64) error
	AllRecords(ctx context.Context) ([]engine.Record, error)
	Close() error
}

// Open connects to the backend named by driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case config.DriverSQLite, "":
		s, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrDriverUnsupport, driver)
	}
}

// row mirrors the birthdays table with NULLs already coalesced to "".
type row struct {
	id        int64
	owner     int64
	name      string
	date      string
	handle    string
	category  string
	label     string
	createdAt time.Time
}

// record converts a row. A malformed birth_date is kept as an invalid
// CalendarDate so the calculator reports it instead of the read failing.
func (r row) record() engine.Record {
	var y, m, d int
	if _, err := fmt.Sscanf(strings.TrimSpace(r.date), config.FormatStoredScan, &y, &m, &d); err != nil {
		slog.Warn(config.ErrDateParse,
			config.LogKeyComponent, config.CompStore,
			config.LogKeyRecord, r.id,
			config.LogKeyValue, r.date)
	}
	return engine.Record{
		ID:            r.id,
		OwnerID:       r.owner,
		SubjectName:   r.name,
		Date:          engine.CalendarDate{Year: y, Month: time.Month(m), Day: d},
		Category:      engine.ParseCategory(r.category),
		Label:         r.label,
		ContactHandle: strings.TrimPrefix(r.handle, config.HandlePrefix),
		CreatedAt:     r.createdAt,
	}
}

// columns returns the write-side values of rec in table order.
func columns(rec engine.Record) (name, date, handle, category, label string) {
	category = string(rec.Category)
	if category == "" {
		category = config.CategoryBirthday
	}
	return strings.TrimSpace(rec.SubjectName),
		rec.Date.String(),
		strings.TrimPrefix(strings.TrimSpace(rec.ContactHandle), config.HandlePrefix),
		category,
		strings.TrimSpace(rec.Label)
}

// sortByMonthDay orders records the way listings show them: by month, day,
// then insertion order.
func sortByMonthDay(records []engine.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Date, records[j].Date
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return records[i].ID < records[j].ID
	})
}

func logChange(msg string, id, owner int64) {
	slog.Info(msg,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyRecord, id,
		config.LogKeyOwner, owner)
}
