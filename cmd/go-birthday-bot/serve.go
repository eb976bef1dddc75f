package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
	"github.com/tartampluch/go-birthday-bot/internal/i18n"
	"github.com/tartampluch/go-birthday-bot/internal/scheduler"
	"github.com/tartampluch/go-birthday-bot/internal/server"
	"github.com/tartampluch/go-birthday-bot/internal/store"
	"github.com/tartampluch/go-birthday-bot/internal/telegram"
)

// deps holds what both the long-running service and the one-shot sweep need.
type deps struct {
	settings *config.Settings
	store    store.Store
	texts    *i18n.Catalog
	api      telegram.API
	clock    engine.ZonedClock
}

// openDeps opens the store and the message catalog and, when withBot is set,
// authorizes the Telegram client.
func openDeps(ctx context.Context, settings *config.Settings, withBot bool) (*deps, error) {
	texts, err := i18n.New(settings.Language)
	if err != nil {
		return nil, err
	}

	d := &deps{
		settings: settings,
		texts:    texts,
		clock:    engine.ZonedClock{Location: settings.Location()},
	}

	if withBot {
		token, err := settings.ResolveToken()
		if err != nil {
			return nil, err
		}
		api, err := telegram.NewAPI(token, settings.Telegram.Debug)
		if err != nil {
			return nil, err
		}
		d.api = api
	}

	st, err := store.Open(ctx, settings.Database.Driver, settings.Database.DSN)
	if err != nil {
		return nil, err
	}
	d.store = st
	return d, nil
}

func (d *deps) close() {
	if err := d.store.Close(); err != nil {
		slog.Warn(config.ErrStoreClose,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err)
	}
}

func (d *deps) sweeper() *engine.Sweeper {
	return engine.NewSweeper(d.clock, d.store, engine.NewMessageRenderer(d.texts), telegram.Sender{API: d.api})
}

// refreshFeeds re-renders every subscriber's calendar into srv.
func (d *deps) refreshFeeds(srv *server.CalendarServer) scheduler.JobFunc {
	return func(ctx context.Context) error {
		records, err := d.store.AllRecords(ctx)
		if err != nil {
			return err
		}
		feeds, err := engine.BuildFeeds(d.clock.Now(), records, d.settings.Feed.Secret, d.texts)
		if err != nil {
			return err
		}
		srv.Update(feeds)

		slog.Info(config.MsgFeedsRefreshed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyFeeds, len(feeds))
		return nil
	}
}

// runServe runs the bot, the scheduler and, if a listen address is set, the
// feed server until ctx is cancelled or one of them fails.
func runServe(parent context.Context, settings *config.Settings) error {
	d, err := openDeps(parent, settings, true)
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sweeper := d.sweeper()
	sched := scheduler.New(settings.Location())

	var srv *server.CalendarServer
	var refresh scheduler.JobFunc
	if settings.Feed.Listen != "" {
		srv = server.NewCalendarServer(settings.Feed.Listen)
		refresh = d.refreshFeeds(srv)

		if err := refresh(ctx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrFeedRefresh, err)
		}
		if err := sched.Add(config.JobFeedRefresh, config.DefaultFeedRefreshCron, refresh); err != nil {
			return err
		}
	}

	if err := sched.Add(config.JobDailyReminders, settings.Schedule.Cron, scheduler.DailyJob(sweeper, refresh)); err != nil {
		return err
	}

	bot := telegram.NewBot(telegram.Options{
		API:           d.api,
		Records:       d.store,
		Sweeper:       sweeper,
		Texts:         d.texts,
		Clock:         d.clock,
		FeedBaseURL:   settings.Feed.PublicURL,
		FeedSecret:    settings.Feed.Secret,
		UpdateTimeout: settings.Telegram.UpdateTimeout,
	})

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Start(ctx)
	}()

	if srv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Start(ctx); err != nil {
				errs <- err
				cancel()
			}
		}()
	}

	if err := bot.Run(ctx); err != nil {
		errs <- err
	}

	slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
	cancel()
	wg.Wait()
	close(errs)

	var all []error
	for err := range errs {
		all = append(all, err)
	}
	return errors.Join(all...)
}
