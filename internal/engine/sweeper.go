package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// RecordSource is the bulk read the sweep consumes once per run.
type RecordSource interface {
	AllRecords(ctx context.Context) ([]Record, error)
}

// Sender delivers one text to one subscriber.
type Sender interface {
	Send(ctx context.Context, ownerID int64, text string) error
}

// SweepStats summarizes one pass over the records.
type SweepStats struct {
	Total   int // records read
	Due     int // records at a due offset
	Sent    int // successful sends
	Failed  int // due records whose render or send failed
	Skipped int // records with an unusable date
}

func (s SweepStats) logAttr() slog.Attr {
	return slog.Group(config.LogKeyStats,
		slog.Int(config.LogKeyTotal, s.Total),
		slog.Int(config.LogKeyDue, s.Due),
		slog.Int(config.LogKeySent, s.Sent),
		slog.Int(config.LogKeyFailed, s.Failed),
		slog.Int(config.LogKeySkipped, s.Skipped),
	)
}

// Sweep sends one reminder per record whose next occurrence is a due offset
// away from today. Records are processed sequentially; a failure on one record
// is logged and never stops the others. Cancelling ctx stops before the next record.
func Sweep(ctx context.Context, records []Record, today time.Time, r Renderer, s Sender) SweepStats {
	stats := SweepStats{Total: len(records)}

	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}

		log := slog.With(
			config.LogKeyComponent, config.CompSweeper,
			config.LogKeyRecord, rec.ID,
			config.LogKeyOwner, rec.OwnerID,
		)

		days, err := DaysUntilNextOccurrence(today, rec.Date)
		if err != nil {
			stats.Skipped++
			log.Warn(config.MsgSkippedRecord,
				config.LogKeyDate, rec.Date.String(),
				config.LogKeyError, err)
			continue
		}
		if !IsDue(days) {
			continue
		}
		stats.Due++

		text, err := r.Render(rec, days, today)
		if err != nil {
			stats.Failed++
			log.Error(config.MsgNotifFailed,
				config.LogKeyDays, days,
				config.LogKeyError, err)
			continue
		}

		if err := s.Send(ctx, rec.OwnerID, text); err != nil {
			stats.Failed++
			log.Error(config.MsgNotifFailed,
				config.LogKeyDays, days,
				config.LogKeyError, fmt.Errorf("%s: %w", config.ErrSend, err))
			continue
		}

		stats.Sent++
		log.Info(config.MsgNotifSent,
			config.LogKeyCategory, string(rec.Category),
			config.LogKeyDays, days)
	}

	return stats
}

// Sweeper is the trigger surface used by the daily job and the manual command.
type Sweeper struct {
	Clock    Clock
	Source   RecordSource
	Renderer Renderer
	Sender   Sender

	// mu serializes sweeps; it does not deduplicate them.
	mu sync.Mutex
}

// NewSweeper wires a Sweeper.
func NewSweeper(clock Clock, source RecordSource, renderer Renderer, sender Sender) *Sweeper {
	return &Sweeper{
		Clock:    clock,
		Source:   source,
		Renderer: renderer,
		Sender:   sender,
	}
}

// RunSweepNow reads every record and sweeps them against the clock's today.
// It returns the number of reminders sent. A failed bulk read returns 0 and
// the wrapped error; the next trigger simply retries.
func (s *Sweeper) RunSweepNow(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	log := slog.With(config.LogKeyComponent, config.CompSweeper)
	log.InfoContext(ctx, config.MsgSweepStarted)

	records, err := s.Source.AllRecords(ctx)
	if err != nil {
		log.ErrorContext(ctx, config.ErrBulkRead, config.LogKeyError, err)
		return 0, fmt.Errorf("%s: %w", config.ErrBulkRead, err)
	}
	if len(records) == 0 {
		log.InfoContext(ctx, config.MsgSweepNoRecords)
		return 0, nil
	}

	stats := Sweep(ctx, records, s.Clock.Now(), s.Renderer, s.Sender)

	log.InfoContext(ctx, config.MsgSweepDone,
		stats.logAttr(),
		config.LogKeyDuration, time.Since(start).Milliseconds())
	return stats.Sent, nil
}
