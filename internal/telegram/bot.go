package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
)

// Records is the store surface the conversation needs.
type Records interface {
	Add(ctx context.Context, rec engine.Record) (int64, error)
	List(ctx context.Context, owner int64) ([]engine.Record, error)
	Update(ctx context.Context, rec engine.Record) error
	Delete(ctx context.Context, id, owner int64) error
}

// SweepRunner triggers an on-demand reminder sweep.
type SweepRunner interface {
	RunSweepNow(ctx context.Context) (int, error)
}

// Texts renders localized messages.
type Texts interface {
	T(id string, data map[string]any) string
}

// Options wires a Bot.
type Options struct {
	API     API
	Records Records
	Sweeper SweepRunner
	Texts   Texts
	Clock   engine.Clock

	// FeedBaseURL and FeedSecret enable /calendar. An empty base URL disables it.
	FeedBaseURL string
	FeedSecret  string

	// UpdateTimeout is the long-polling timeout in seconds.
	UpdateTimeout int
}

// Bot handles commands and the multi-step dialogs for one or more chats.
// Updates are processed one at a time, so conversation state needs no lock.
type Bot struct {
	opts  Options
	convs map[int64]*conversation
}

// NewBot creates a Bot.
func NewBot(opts Options) *Bot {
	if opts.UpdateTimeout <= 0 {
		opts.UpdateTimeout = config.DefaultUpdateTimeout
	}
	return &Bot{
		opts:  opts,
		convs: make(map[int64]*conversation),
	}
}

// Run consumes updates until ctx is cancelled or the channel closes.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.opts.UpdateTimeout
	updates := b.opts.API.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.opts.API.StopReceivingUpdates()
			slog.Info(config.MsgBotStop, config.LogKeyComponent, config.CompBot)
			return nil
		case upd, ok := <-updates:
			if !ok {
				slog.Info(config.MsgBotStop, config.LogKeyComponent, config.CompBot)
				return nil
			}
			b.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate routes one update. Only text messages are handled.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		slog.Debug(config.ErrUnexpectedUpdate,
			config.LogKeyComponent, config.CompBot,
			config.LogKeyValue, upd.UpdateID)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleText(ctx, msg.Chat.ID, strings.TrimSpace(msg.Text))
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chat := msg.Chat.ID
	cmd := msg.Command()
	slog.Info(config.MsgCommand,
		config.LogKeyComponent, config.CompBot,
		config.LogKeyCommand, cmd,
		config.LogKeyOwner, chat)

	if cmd == config.CommandCancel {
		if b.conv(chat).stage == stageIdle {
			b.reply(chat, b.t(config.TKeyNothingToCancel, nil))
			return
		}
		b.reset(chat)
		b.reply(chat, b.t(config.TKeyCancelled, nil))
		return
	}

	// Any other command abandons a dialog in progress.
	b.reset(chat)

	switch cmd {
	case config.CommandStart:
		name := config.FallbackName
		if msg.From != nil && msg.From.FirstName != "" {
			name = msg.From.FirstName
		}
		b.reply(chat, b.t(config.TKeyWelcome, map[string]any{engine.FieldName: name}))
		b.reply(chat, b.t(config.TKeyHelp, nil))
	case config.CommandHelp:
		b.reply(chat, b.t(config.TKeyHelp, nil))
	case config.CommandAdd:
		b.conv(chat).stage = stageCategory
		b.reply(chat, b.t(config.TKeyAskCategory, nil))
	case config.CommandList:
		b.list(ctx, chat)
	case config.CommandDelete:
		b.choose(ctx, chat, stageDeleteIndex, config.TKeyAskDeleteIndex)
	case config.CommandEdit:
		b.choose(ctx, chat, stageEditIndex, config.TKeyAskEditIndex)
	case config.CommandCheck:
		b.check(ctx, chat)
	case config.CommandCalendar:
		b.calendar(chat)
	default:
		b.reply(chat, b.t(config.TKeyUnknownCommand, nil))
	}
}

func (b *Bot) list(ctx context.Context, chat int64) {
	records, err := b.opts.Records.List(ctx, chat)
	if err != nil {
		b.logFailure(chat, err)
		b.reply(chat, b.t(config.TKeyFetchFailed, nil))
		return
	}
	if len(records) == 0 {
		b.reply(chat, b.t(config.TKeyListEmpty, nil))
		return
	}

	parts := []string{b.t(config.TKeyListHeader, nil)}
	for i, e := range engine.Upcoming(b.opts.Clock.Now(), records) {
		parts = append(parts, b.t(config.TKeyListItem, map[string]any{
			fieldIndex:       i + 1,
			engine.FieldName: e.Record.Heading(),
			engine.FieldDate: e.Record.Date.Display(),
			fieldWhen:        b.when(e.DaysUntil),
		}))
	}
	parts = append(parts, b.t(config.TKeyListFooter, nil))
	b.reply(chat, strings.Join(parts, "\n\n"))
}

func (b *Bot) when(days int) string {
	switch days {
	case engine.OffsetToday:
		return b.t(config.TKeyWhenToday, nil)
	case engine.OffsetTomorrow:
		return b.t(config.TKeyWhenTomorrow, nil)
	default:
		return b.t(config.TKeyWhenInDays, map[string]any{engine.FieldDays: days})
	}
}

// choose shows the numbered list the next message picks from.
func (b *Bot) choose(ctx context.Context, chat int64, next stage, prompt string) {
	records, err := b.opts.Records.List(ctx, chat)
	if err != nil {
		b.logFailure(chat, err)
		b.reply(chat, b.t(config.TKeyFetchFailed, nil))
		return
	}
	if len(records) == 0 {
		b.reply(chat, b.t(config.TKeyListEmpty, nil))
		return
	}

	items := make([]string, 0, len(records))
	for i, rec := range records {
		items = append(items, b.t(config.TKeyIndexItem, map[string]any{
			fieldIndex:       i + 1,
			engine.FieldName: rec.Heading(),
			engine.FieldDate: rec.Date.Display(),
		}))
	}

	c := b.conv(chat)
	c.stage = next
	c.choices = records
	b.reply(chat, b.t(prompt, map[string]any{fieldItems: strings.Join(items, "\n")}))
}

func (b *Bot) check(ctx context.Context, chat int64) {
	slog.Info(config.MsgSweepManual,
		config.LogKeyComponent, config.CompBot,
		config.LogKeyOwner, chat)
	b.reply(chat, b.t(config.TKeyCheckStarted, nil))

	// RunSweepNow logs its own failures.
	sent, err := b.opts.Sweeper.RunSweepNow(ctx)
	if err != nil {
		b.reply(chat, b.t(config.TKeyCheckFailed, nil))
		return
	}
	b.reply(chat, b.t(config.TKeyCheckDone, map[string]any{fieldCount: sent}))
}

func (b *Bot) calendar(chat int64) {
	url := FeedURL(b.opts.FeedBaseURL, b.opts.FeedSecret, chat)
	if url == "" {
		b.reply(chat, b.t(config.TKeyCalendarDisabled, nil))
		return
	}
	b.reply(chat, b.t(config.TKeyCalendarURL, map[string]any{fieldURL: url}))
}

// FeedURL is the public address of an owner's calendar, or "" when the feed
// is not published.
func FeedURL(baseURL, secret string, owner int64) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return ""
	}
	return fmt.Sprintf(config.FormatFeedPath, baseURL, engine.FeedKey(secret, owner)) + config.FeedExtension
}

func (b *Bot) t(id string, data map[string]any) string {
	return b.opts.Texts.T(id, data)
}

func (b *Bot) reply(chat int64, text string) {
	if _, err := b.opts.API.Send(tgbotapi.NewMessage(chat, text)); err != nil {
		slog.Error(config.ErrSend,
			config.LogKeyComponent, config.CompBot,
			config.LogKeyOwner, chat,
			config.LogKeyError, err)
	}
}

func (b *Bot) logFailure(chat int64, err error) {
	slog.Error(config.ErrStoreQuery,
		config.LogKeyComponent, config.CompBot,
		config.LogKeyOwner, chat,
		config.LogKeyError, err)
}
