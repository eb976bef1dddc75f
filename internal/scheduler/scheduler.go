// Package scheduler runs the time-driven triggers of the bot on a cron
// schedule evaluated in the configured fixed offset.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// JobFunc is one scheduled unit of work.
type JobFunc func(ctx context.Context) error

// Scheduler wraps a cron runner whose jobs share the context given to Start.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger

	mu  sync.RWMutex
	ctx context.Context // set by Start
}

// New creates a Scheduler evaluating specs in loc.
func New(loc *time.Location) *Scheduler {
	log := slog.With(config.LogKeyComponent, config.CompScheduler)
	adapter := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		log: log,
		ctx: context.Background(),
	}
}

// Add registers fn under name with a standard 5-field cron spec.
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("%s %q: %w", config.ErrBadCron, spec, err)
	}

	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := fn(s.jobContext()); err != nil {
			s.log.Error(config.MsgJobFailed,
				config.LogKeyJob, name,
				config.LogKeyError, err)
			return
		}
		s.log.Info(config.MsgJobDone,
			config.LogKeyJob, name,
			config.LogKeyDuration, time.Since(start).Milliseconds())
	})
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrSchedulerAddJob, err)
	}

	s.log.Info(config.MsgJobAdded,
		config.LogKeyJob, name,
		config.LogKeyCron, spec)
	return nil
}

// Next reports when the earliest registered job fires next.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		n := e.Schedule.Next(time.Now().In(s.cron.Location()))
		if next.IsZero() || n.Before(next) {
			next = n
		}
	}
	return next
}

// Start runs the jobs until ctx is cancelled, then waits for running jobs.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.log.Info(config.MsgSchedulerStart, config.LogKeyNext, s.Next())

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.log.Info(config.MsgSchedulerStop)
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

// cronLogger forwards cron's own logging to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, config.LogKeyError, err)...)
}
